package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

// AttendanceHandler exposes the attendance ledger over HTTP, including the
// public token check-in endpoints.
type AttendanceHandler struct {
	attendance service.AttendanceService
	logger     zerolog.Logger
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(attendance service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		logger:     logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Mark handles POST /attendance/mark.
func (h *AttendanceHandler) Mark(c *fiber.Ctx) error {
	var payload dto.AttendanceMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	record, err := h.attendance.Mark(c.Context(), payload, actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to mark attendance")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "attendance recorded", record)
}

// BulkMark handles POST /attendance/bulk-mark.
func (h *AttendanceHandler) BulkMark(c *fiber.Ctx) error {
	var payload dto.AttendanceBulkMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	records, err := h.attendance.BulkMark(c.Context(), payload, actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to bulk mark attendance")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "attendance recorded", records)
}

// Update handles PATCH /attendance/:id.
func (h *AttendanceHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid attendance id")
	}

	var payload dto.AttendanceUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	record, err := h.attendance.Update(c.Context(), id, payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("attendance_id", id).Msg("failed to update attendance")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "attendance updated", record)
}

// GenerateLink handles POST /attendance/generate-link.
func (h *AttendanceHandler) GenerateLink(c *fiber.Ctx) error {
	var payload dto.GenerateLinkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	link, err := h.attendance.GenerateLink(c.Context(), payload, actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to generate check-in link")
		return respondServiceError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "check-in link issued", link)
}

// ClassDay handles GET /attendance/class/:classId.
func (h *AttendanceHandler) ClassDay(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "classId")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}
	date, err := parseDateQuery(c, "date")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid date, expected YYYY-MM-DD")
	}

	day, err := h.attendance.ClassDay(c.Context(), classID, date)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("classroom_id", classID).Msg("failed to load class day")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "class attendance", day)
}

// StudentHistory handles GET /attendance/student/:studentId.
func (h *AttendanceHandler) StudentHistory(c *fiber.Ctx) error {
	studentID, err := parseIDParam(c, "studentId")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid student id")
	}
	classroomID, err := parseQueryInt(c, "classId")
	if err != nil || classroomID < 0 {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}

	records, err := h.attendance.StudentHistory(c.Context(), studentID, uint(classroomID))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("student_id", studentID).Msg("failed to load attendance history")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "attendance history", records)
}

// Stats handles GET /attendance/stats/:classId.
func (h *AttendanceHandler) Stats(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "classId")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}
	from, err := parseDateQuery(c, "startDate")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid start date")
	}
	to, err := parseDateQuery(c, "endDate")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid end date")
	}

	stats, err := h.attendance.Stats(c.Context(), classID, from, to)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("classroom_id", classID).Msg("failed to load attendance stats")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "attendance stats", stats)
}

// Report handles GET /attendance/report.
func (h *AttendanceHandler) Report(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "startDate")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid start date")
	}
	to, err := parseDateQuery(c, "endDate")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid end date")
	}
	classID, err := parseQueryInt(c, "classId")
	if err != nil || classID < 0 {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid class id")
	}

	rows, err := h.attendance.Report(c.Context(), from, to, uint(classID))
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to build attendance report")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "attendance report", rows)
}

// LookupToken handles GET /public/attendance/token/:token. No authentication;
// token possession is the credential.
func (h *AttendanceHandler) LookupToken(c *fiber.Ctx) error {
	lookup, err := h.attendance.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "token lookup", lookup)
}

// SubmitToken handles POST /public/attendance/submit.
func (h *AttendanceHandler) SubmitToken(c *fiber.Ctx) error {
	var payload dto.TokenSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, "invalid request body")
	}

	record, err := h.attendance.SubmitByToken(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Info().Err(err).Msg("token check-in rejected")
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "checked in", record)
}
