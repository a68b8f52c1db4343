package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

// ClassroomHandler exposes classroom CRUD plus the virtual classroom views
// synthesized from orders.
type ClassroomHandler struct {
	classrooms service.ClassroomService
	logger     zerolog.Logger
}

// NewClassroomHandler constructs a classroom handler.
func NewClassroomHandler(classrooms service.ClassroomService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		classrooms: classrooms,
		logger:     logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// List handles GET /classrooms. Teachers only see their own classes.
func (h *ClassroomHandler) List(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	if strings.EqualFold(actor.Role, "teacher") {
		classrooms, err := h.classrooms.ClassesForTeacher(c.Context(), actor.ID)
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to list teacher classes")
			return respondServiceError(c, err)
		}
		return utils.SendSuccess(c, "classes", classrooms)
	}

	classrooms, err := h.classrooms.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list classes")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "classes", classrooms)
}

// TeacherClasses handles GET /attendance/teacher/classes.
func (h *ClassroomHandler) TeacherClasses(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	classrooms, err := h.classrooms.ClassesForTeacher(c.Context(), actor.ID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list teacher classes")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "teacher classes", classrooms)
}

// ClassTeachers handles GET /attendance/class/:classId/teachers.
func (h *ClassroomHandler) ClassTeachers(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "classId")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}

	classroom, err := h.classrooms.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "class teachers", classroom.Teachers)
}

// ListVirtual handles GET /attendance/order-classes.
func (h *ClassroomHandler) ListVirtual(c *fiber.Ctx) error {
	classes, err := h.classrooms.ClassesFromOrders(c.Context(), actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to assemble virtual classes")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "virtual classes", classes)
}

// Get handles GET /classes/:id, accepting both numeric ids and virtual_<CODE>
// references.
func (h *ClassroomHandler) Get(c *fiber.Ctx) error {
	raw := c.Params("id")
	if strings.HasPrefix(raw, service.VirtualClassPrefix) {
		class, err := h.classrooms.VirtualClassByCode(c.Context(), raw, actorFromContext(c))
		if err != nil {
			return respondServiceError(c, err)
		}
		return utils.SendSuccess(c, "virtual class", class)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}
	classroom, err := h.classrooms.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "class", classroom)
}

// Roster handles GET /classes/:id/roster.
func (h *ClassroomHandler) Roster(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}

	classroom, err := h.classrooms.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	roster, err := h.classrooms.RosterForClass(c.Context(), classroom)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("classroom_id", id).Msg("failed to resolve roster")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "class roster", roster)
}

// Create handles POST /classes.
func (h *ClassroomHandler) Create(c *fiber.Ctx) error {
	var payload dto.ClassroomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	classroom, err := h.classrooms.Create(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to create class")
		return respondServiceError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", classroom)
}

// Update handles PATCH /classes/:id.
func (h *ClassroomHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}

	var payload dto.ClassroomUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	classroom, err := h.classrooms.Update(c.Context(), id, payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("classroom_id", id).Msg("failed to update class")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "class updated", classroom)
}

// Delete handles DELETE /classes/:id.
func (h *ClassroomHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}

	if err := h.classrooms.Delete(c.Context(), id); err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "class deleted", nil)
}
