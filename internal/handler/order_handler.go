package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

// OrderHandler exposes order CRUD and the manual sync trigger.
type OrderHandler struct {
	orders service.OrderService
	logger zerolog.Logger
}

// NewOrderHandler constructs an order handler.
func NewOrderHandler(orders service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger.With().Str("component", "order_handler").Logger(),
	}
}

// List handles GET /orders.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid page size")
	}
	studentID, err := parseQueryInt(c, "student_id")
	if err != nil || studentID < 0 {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}

	orders, total, err := h.orders.List(c.Context(), repository.OrderFilter{
		ClassCode: c.Query("class_code"),
		StudentID: uint(studentID),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list orders")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "orders", fiber.Map{"items": orders, "total": total})
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid order id")
	}

	order, err := h.orders.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "order", order)
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var payload dto.OrderCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	order, err := h.orders.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to create order")
		return respondServiceError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "order created", order)
}

// Update handles PATCH /orders/:id.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid order id")
	}

	var payload dto.OrderUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	order, err := h.orders.Update(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("order_id", id).Msg("failed to update order")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "order updated", order)
}

// Delete handles DELETE /orders/:id.
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid order id")
	}

	if err := h.orders.Delete(c.Context(), id); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("order_id", id).Msg("failed to delete order")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "order deleted", nil)
}

// Sync handles POST /orders/:id/sync, a manual replay of the enrichment and
// fan-out for one order.
func (h *OrderHandler) Sync(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid order id")
	}

	if err := h.orders.Sync(c.Context(), id); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("order_id", id).Msg("manual order sync failed")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "order synced", nil)
}
