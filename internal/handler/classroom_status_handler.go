package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

// ClassroomStatusHandler exposes the lockable classroom overview aggregate.
type ClassroomStatusHandler struct {
	statuses service.ClassroomStatusService
	logger   zerolog.Logger
}

// NewClassroomStatusHandler constructs a classroom-status handler.
func NewClassroomStatusHandler(statuses service.ClassroomStatusService, logger zerolog.Logger) *ClassroomStatusHandler {
	return &ClassroomStatusHandler{
		statuses: statuses,
		logger:   logger.With().Str("component", "classroom_status_handler").Logger(),
	}
}

type lockRequest struct {
	IsLocked bool `json:"is_locked"`
}

// List handles GET /classroom-status.
func (h *ClassroomStatusHandler) List(c *fiber.Ctx) error {
	records, err := h.statuses.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list classroom statuses")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "classroom statuses", records)
}

// Get handles GET /classroom-status/:id.
func (h *ClassroomStatusHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid classroom status id")
	}

	record, err := h.statuses.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "classroom status", record)
}

// Lock handles PATCH /classroom-status/:id/lock.
func (h *ClassroomStatusHandler) Lock(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid classroom status id")
	}

	var payload lockRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	record, err := h.statuses.Lock(c.Context(), id, payload.IsLocked)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("classroom_status_id", id).Msg("failed to change lock")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "lock updated", record)
}
