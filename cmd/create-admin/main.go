// Command create-admin signs up the first admin account on the salon backend,
// so the dashboard has someone who can log in.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"salon_admin/internal/backend"
	"salon_admin/internal/model"
	"salon_admin/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type adminConfig struct {
	BackendURL string        `env:"BACKEND_URL"     env-default:"http://localhost:4000" validate:"required,url"`
	Timeout    time.Duration `env:"BACKEND_TIMEOUT" env-default:"15s"`
	Username   string        `env:"ADMIN_USERNAME"  env-default:"admin"                 validate:"required"`
	Email      string        `env:"ADMIN_EMAIL"     validate:"required,email"`
	Phone      string        `env:"ADMIN_PHONE"     validate:"required"`
	Password   string        `env:"ADMIN_PASSWORD"  validate:"required,min=6"`
	Firstname  string        `env:"ADMIN_FIRSTNAME" env-default:"Admin"`
	Lastname   string        `env:"ADMIN_LASTNAME"  env-default:"User"`
	Address    string        `env:"ADMIN_ADDRESS"   env-default:"Admin Address"`
	// the backend of the original portal stores the password as sent
	HashPassword bool `env:"ADMIN_HASH_PASSWORD" env-default:"true"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment variables")
	}

	var cfg adminConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		logger.Error("Failed to read environment", "error", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "backend base URL")
	flag.StringVar(&cfg.Username, "username", cfg.Username, "admin username")
	flag.StringVar(&cfg.Email, "email", cfg.Email, "admin email")
	flag.StringVar(&cfg.Phone, "phone", cfg.Phone, "admin phone")
	flag.StringVar(&cfg.Password, "password", cfg.Password, "admin password")
	flag.StringVar(&cfg.Firstname, "firstname", cfg.Firstname, "first name")
	flag.StringVar(&cfg.Lastname, "lastname", cfg.Lastname, "last name")
	flag.BoolVar(&cfg.HashPassword, "hash", cfg.HashPassword, "bcrypt the password before sending it")
	flag.Parse()

	if err := validator.New().Struct(cfg); err != nil {
		logger.Error("Invalid admin settings", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
	defer cancel()

	client := backend.NewClient(cfg.BackendURL, cfg.Timeout, logger)
	created, err := createAdmin(ctx, client, cfg)
	if err != nil {
		logger.Error("Failed to create admin", "error", err)
		os.Exit(1)
	}
	if !created {
		logger.Info("Admin user already exists, use the existing credentials", "email", cfg.Email, "username", cfg.Username)
		return
	}
	logger.Info("Admin user created", "email", cfg.Email, "username", cfg.Username)
}

// signupClient is the part of the backend client the command needs.
type signupClient interface {
	Signup(ctx context.Context, req model.SignupRequest) error
}

// createAdmin reports false without error when the account already exists.
func createAdmin(ctx context.Context, client signupClient, cfg adminConfig) (bool, error) {
	password := cfg.Password
	if cfg.HashPassword {
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return false, fmt.Errorf("failed to hash password: %w", err)
		}
		password = hashed
	}

	err := client.Signup(ctx, model.SignupRequest{
		Username:  cfg.Username,
		Email:     cfg.Email,
		Phone:     cfg.Phone,
		Password:  password,
		Firstname: cfg.Firstname,
		Lastname:  cfg.Lastname,
		UserType:  model.RoleAdmin,
		Code:      model.CodeVerified,
		Address1:  cfg.Address,
	})
	if err == nil {
		return true, nil
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "already exists") {
		return false, nil
	}
	if errors.Is(err, backend.ErrNetwork) {
		return false, fmt.Errorf("is the backend running at %s? %w", cfg.BackendURL, err)
	}
	return false, err
}
