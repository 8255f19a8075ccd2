package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentService handles student account lookups and login checks.
type StudentService struct {
	students *repository.StudentRepository
	auth     *AuthService
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students *repository.StudentRepository, auth *AuthService, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		auth:     auth,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// Login verifies NISN/password and issues a JWT.
func (s *StudentService) Login(ctx context.Context, req model.StudentLoginRequest) (string, *model.Student, error) {
	student, err := s.students.GetByNISN(ctx, req.NISN)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := s.auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return "", nil, err
	}
	token, err := s.auth.GenerateStudentToken(ctx, student.ID, student.GradeLevel)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Int("student_id", student.ID).Msg("Student logged in")
	return token, student, nil
}

// Logout clears the student's single-device session.
func (s *StudentService) Logout(ctx context.Context, studentID int) error {
	return s.auth.ResetStudentSession(ctx, studentID)
}

// GetByID loads a student profile.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// Register creates a student account with a hashed password.
func (s *StudentService) Register(ctx context.Context, student *model.Student, password string) error {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	student.PasswordHash = hash
	return s.students.Create(ctx, student)
}
