// Package config resolves connection and loader settings from a .env file,
// an optional oceanq.yaml project file and DB_* environment variables.
//
// Precedence, lowest to highest: built-in defaults, oceanq.yaml, environment.
// Variables already present in the process environment are never overwritten
// by the .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// ErrConfigNotFound is returned when the project file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	// ProjectFileName is the optional per-directory project file.
	ProjectFileName = "oceanq.yaml"

	// DefaultEnvFile is loaded when no explicit env file is given.
	DefaultEnvFile = ".env"

	// EnvPrefix prefixes every connection variable.
	EnvPrefix = "DB_"
)

// ProjectConfig is the content of oceanq.yaml.
type ProjectConfig struct {
	Table   string `yaml:"table"`
	Source  string `yaml:"source"`
	SSLMode string `yaml:"sslmode"`
}

// LoadProject reads oceanq.yaml from dir.
func LoadProject(dir string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, ProjectFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}
	return &cfg, nil
}

// Settings mirrors the DB_* variables. Field tags name the variable without
// its prefix, lowercased.
type Settings struct {
	Host           string        `koanf:"host" validate:"required"`
	Port           int           `koanf:"port" validate:"min=1,max=65535"`
	Name           string        `koanf:"name" validate:"required"`
	User           string        `koanf:"user" validate:"required"`
	Password       string        `koanf:"password"`
	SSLMode        string        `koanf:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	Table          string        `koanf:"table" validate:"required,tablename"`
	AuthMethod     string        `koanf:"auth_method" validate:"oneof=standard aws-iam google-iam azure-entra-id"`
	AppName        string        `koanf:"app_name"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"min=0"`
	GoogleInstance string        `koanf:"google_instance" validate:"required_if=AuthMethod google-iam"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// EnvFile is an explicit .env path. When empty, DefaultEnvFile is loaded
	// if it exists.
	EnvFile string

	// ProjectDir is the directory searched for oceanq.yaml. Defaults to ".".
	ProjectDir string
}

// Config is the resolved configuration of one process.
type Config struct {
	Connection *oceanq.ConnectionConfig
	Table      string
	Source     string
}

// Load resolves the configuration. Every validation failure is reported
// at once in an error wrapping oceanq.ErrInvalidConfig.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}
	project, err := LoadProject(dir)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, fmt.Errorf("%w: %v", oceanq.ErrInvalidConfig, err)
	}
	if project == nil {
		project = &ProjectConfig{}
	}

	settings, err := readSettings(project)
	if err != nil {
		return nil, err
	}
	if err := Validate(settings); err != nil {
		return nil, err
	}

	auth, err := oceanq.ParseAuthMethod(settings.AuthMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oceanq.ErrInvalidConfig, err)
	}

	source := project.Source
	if source == "" {
		source = oceanq.DefaultSourceFile
	}

	return &Config{
		Connection: &oceanq.ConnectionConfig{
			Host:              settings.Host,
			Port:              settings.Port,
			Database:          settings.Name,
			Username:          settings.User,
			Password:          settings.Password,
			SSLMode:           settings.SSLMode,
			AuthMethod:        auth,
			AppName:           settings.AppName,
			ConnectTimeout:    settings.ConnectTimeout,
			AWSRegion:         os.Getenv("AWS_REGION"),
			GoogleInstance:    settings.GoogleInstance,
			AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
			AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
			AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		},
		Table:  settings.Table,
		Source: source,
	}, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: failed to read %s: %v", oceanq.ErrInvalidConfig, DefaultEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to read env file %s: %v", oceanq.ErrInvalidConfig, path, err)
	}
	return nil
}

// readSettings layers DB_* variables over the project file and defaults.
func readSettings(project *ProjectConfig) (*Settings, error) {
	settings := &Settings{
		Port:       oceanq.DefaultPort,
		SSLMode:    oceanq.DefaultSSLMode,
		Table:      oceanq.DefaultTableName,
		AuthMethod: "standard",
	}
	if project.Table != "" {
		settings.Table = project.Table
	}
	if project.SSLMode != "" {
		settings.SSLMode = project.SSLMode
	}
	defaults := *settings

	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read environment: %v", oceanq.ErrInvalidConfig, err)
	}

	if err := k.Unmarshal("", settings); err != nil {
		return nil, fmt.Errorf("%w: %v", oceanq.ErrInvalidConfig, err)
	}

	// Variables set to an empty string fall back to their defaults.
	if settings.Port == 0 {
		settings.Port = defaults.Port
	}
	if settings.SSLMode == "" {
		settings.SSLMode = defaults.SSLMode
	}
	if settings.Table == "" {
		settings.Table = defaults.Table
	}
	if settings.AuthMethod == "" {
		settings.AuthMethod = defaults.AuthMethod
	}
	settings.AuthMethod = strings.ToLower(settings.AuthMethod)

	return settings, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return EnvPrefix + strings.ToUpper(name)
	})
	_ = v.RegisterValidation("tablename", func(fl validator.FieldLevel) bool {
		return oceanq.IsValidTableName(fl.Field().String())
	})
	return v
}

// Validate checks settings and describes every problem by variable name.
func Validate(s *Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", oceanq.ErrInvalidConfig, err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "required_if":
			invalid = append(invalid, fmt.Sprintf("%s is required for the selected auth method", fe.Field()))
		case "oneof":
			invalid = append(invalid, fmt.Sprintf("%s=%q (want one of %s)", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "min", "max":
			invalid = append(invalid, fmt.Sprintf("%s=%v is out of range", fe.Field(), fe.Value()))
		case "tablename":
			invalid = append(invalid, fmt.Sprintf("%s=%q is not a valid [schema.]table identifier", fe.Field(), fe.Value()))
		default:
			invalid = append(invalid, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	parts = append(parts, invalid...)
	return fmt.Errorf("%w: %s", oceanq.ErrInvalidConfig, strings.Join(parts, "; "))
}
