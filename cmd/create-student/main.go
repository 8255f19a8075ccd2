package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/database"
	"github.com/pathwise/compass-backend/internal/logger"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
	"github.com/pathwise/compass-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Student Account ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter NISN: ")
	nisn, _ := reader.ReadString('\n')
	nisn = strings.TrimSpace(nisn)
	if nisn == "" {
		fmt.Println("Error: NISN is required")
		return
	}

	fmt.Print("Enter Grade Level (9 or 12): ")
	grade, _ := reader.ReadString('\n')
	grade = strings.TrimSpace(grade)
	if !model.ValidGradeLevel(grade) {
		fmt.Println("Error: Grade level must be 9 or 12")
		return
	}

	fmt.Print("Enter School Name (optional): ")
	school, _ := reader.ReadString('\n')
	school = strings.TrimSpace(school)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	student := &model.Student{
		NISN:       nisn,
		Name:       name,
		GradeLevel: grade,
		SchoolName: school,
	}
	if err := studentService.Register(ctx, student, password); err != nil {
		if err == repository.ErrDuplicateNISN {
			fmt.Println("Error: a student with this NISN already exists")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create student")
	}

	fmt.Printf("Student created with ID: %d\n", student.ID)
}
