package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads demo rosters into an environment. Records whose code
// already exists are skipped, so reseeding is safe.
type SeedService interface {
	SeedStudents(ctx context.Context, token string, items []models.Student) (int64, error)
	SeedClassrooms(ctx context.Context, token string, items []models.Classroom) (int64, error)
}

type seedService struct {
	students   repository.StudentRepository
	classrooms repository.ClassroomRepository
	enabled    bool
	token      string
	logger     zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(students repository.StudentRepository, classrooms repository.ClassroomRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		students:   students,
		classrooms: classrooms,
		enabled:    enabled,
		token:      token,
		logger:     logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedStudents(ctx context.Context, token string, items []models.Student) (int64, error) {
	if err := s.authorize(token); err != nil {
		return 0, err
	}

	var affected int64
	for i := range items {
		student := items[i]
		student.ID = 0
		student.Code = strings.ToUpper(strings.TrimSpace(student.Code))
		student.Name = strings.TrimSpace(student.Name)
		if student.Code == "" || student.Name == "" {
			continue
		}
		if student.Type == "" {
			student.Type = models.StudentTypeOnline
		}
		if err := s.students.Create(ctx, &student); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return affected, err
		}
		affected++
	}

	s.logger.Info().Int64("affected", affected).Msg("students seeded")
	return affected, nil
}

func (s *seedService) SeedClassrooms(ctx context.Context, token string, items []models.Classroom) (int64, error) {
	if err := s.authorize(token); err != nil {
		return 0, err
	}

	var affected int64
	for i := range items {
		classroom := items[i]
		classroom.ID = 0
		classroom.Code = strings.ToUpper(strings.TrimSpace(classroom.Code))
		if classroom.Code == "" {
			continue
		}
		if classroom.Name == "" {
			classroom.Name = classroom.Code
		}
		if err := s.classrooms.Create(ctx, &classroom); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return affected, err
		}
		affected++
	}

	s.logger.Info().Int64("affected", affected).Msg("classrooms seeded")
	return affected, nil
}

func (s *seedService) authorize(token string) error {
	if !s.enabled {
		return ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return ErrSeedUnauthorized
	}
	return nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtleConstantTimeCompare(expected, strings.TrimSpace(token))
}

func subtleConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}
