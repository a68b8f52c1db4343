package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

// StudentHandler exposes student CRUD, payment frames and the session balance.
type StudentHandler struct {
	students service.StudentService
	logger   zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(students service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		logger:   logger.With().Str("component", "student_handler").Logger(),
	}
}

// List handles GET /students.
func (h *StudentHandler) List(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid page size")
	}
	saleID, err := parseQueryInt(c, "sale_id")
	if err != nil || saleID < 0 {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid sale id")
	}

	students, total, err := h.students.List(c.Context(), repository.StudentFilter{
		Search:   c.Query("search"),
		SaleID:   uint(saleID),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "students", fiber.Map{"items": students, "total": total})
}

// Get handles GET /students/:id.
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}

	student, err := h.students.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "student", student)
}

// Create handles POST /students.
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	student, err := h.students.Create(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to create student")
		return respondServiceError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

// Update handles PATCH /students/:id.
func (h *StudentHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	student, err := h.students.Update(c.Context(), id, payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("student_id", id).Msg("failed to update student")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "student updated", student)
}

// Delete handles DELETE /students/:id.
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}

	if err := h.students.Delete(c.Context(), id); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("student_id", id).Msg("failed to delete student")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "student deleted", nil)
}

// UpsertFrame handles PUT /students/:id/frames.
func (h *StudentHandler) UpsertFrame(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}

	var payload dto.PaymentFrameRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	student, err := h.students.UpsertPaymentFrame(c.Context(), id, payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("student_id", id).Msg("failed to upsert payment frame")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "payment frame saved", student)
}

// ConfirmFrame handles POST /students/:id/frames/:index/confirm.
func (h *StudentHandler) ConfirmFrame(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}
	index, err := parseIDParam(c, "index")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid frame index")
	}

	student, err := h.students.ConfirmPaymentFrame(c.Context(), id, int(index))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("student_id", id).Msg("failed to confirm payment frame")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "payment frame confirmed", student)
}

// Balance handles GET /students/:id/balance. The balance is computed on every
// read; it is deliberately not cached.
func (h *StudentHandler) Balance(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}

	balance, err := h.students.Balance(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "session balance", balance)
}
