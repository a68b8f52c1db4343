package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

// PaymentRequestHandler exposes the payroll aggregate and its submit
// transition.
type PaymentRequestHandler struct {
	payments service.PaymentRequestService
	logger   zerolog.Logger
}

// NewPaymentRequestHandler constructs a payment-request handler.
func NewPaymentRequestHandler(payments service.PaymentRequestService, logger zerolog.Logger) *PaymentRequestHandler {
	return &PaymentRequestHandler{
		payments: payments,
		logger:   logger.With().Str("component", "payment_request_handler").Logger(),
	}
}

type submitRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// List handles GET /payment-requests.
func (h *PaymentRequestHandler) List(c *fiber.Ctx) error {
	records, err := h.payments.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list payment requests")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "payment requests", records)
}

// Get handles GET /payment-requests/:id.
func (h *PaymentRequestHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid payment request id")
	}

	record, err := h.payments.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "payment request", record)
}

// Submit handles PATCH /payment-requests/:id/submit.
func (h *PaymentRequestHandler) Submit(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid payment request id")
	}

	var payload submitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}
	if payload.PaymentStatus == "" {
		payload.PaymentStatus = "REQUESTED"
	}

	record, err := h.payments.SubmitRequest(c.Context(), id, payload.PaymentStatus)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("payment_request_id", id).Msg("failed to submit payment request")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "payment request submitted", record)
}
