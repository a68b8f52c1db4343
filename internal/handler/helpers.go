package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/middleware"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(parsed), nil
}

// parseDateQuery reads a date query param, defaulting to today when absent.
func parseDateQuery(c *fiber.Ctx, key string) (time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return models.TruncateToDay(time.Now()), nil
	}
	parsed, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return models.TruncateToDay(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func localString(c *fiber.Ctx, key string) string {
	if v := c.Locals(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:    userIDFromContext(c),
		Role:  userRoleFromContext(c),
		Name:  localString(c, "user_name"),
		Email: localString(c, "user_email"),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// respondServiceError translates domain sentinels into the response envelope.
// Anything unmapped is a 500; handlers log those before calling this.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err),
		errors.Is(err, models.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrNegativeRate),
		errors.Is(err, service.ErrInvalidImage):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, utils.CodeValidation, err.Error())

	case errors.Is(err, service.ErrAttendanceNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrClassroomNotFound),
		errors.Is(err, service.ErrVirtualClassNotFound),
		errors.Is(err, service.ErrVirtualStudentNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrClassroomStatusNotFound),
		errors.Is(err, service.ErrPaymentRequestNotFound),
		errors.Is(err, service.ErrFrameNotFound),
		errors.Is(err, service.ErrTokenNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, utils.CodeNotFound, err.Error())

	case errors.Is(err, service.ErrDuplicateAttendance),
		errors.Is(err, service.ErrDuplicateStudentCode),
		errors.Is(err, service.ErrStudentHasAttendance),
		errors.Is(err, service.ErrTooManyFrames):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, utils.CodeConflict, err.Error())

	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, utils.CodeAlreadyCheckedIn, err.Error())

	case errors.Is(err, service.ErrTokenExpired):
		return utils.SendErrorWithCode(c, fiber.StatusGone, utils.CodeTokenExpired, err.Error())

	case errors.Is(err, service.ErrStudentNotInRoster):
		return utils.SendErrorWithCode(c, fiber.StatusUnprocessableEntity, utils.CodeValidation, err.Error())

	case errors.Is(err, service.ErrNotAssignedTeacher):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, utils.CodeForbidden, err.Error())

	default:
		return utils.SendErrorWithCode(c, fiber.StatusInternalServerError, utils.CodeInternal, "internal server error")
	}
}
