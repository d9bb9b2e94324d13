package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     Log     `yaml:"log"`
	Server  Server  `yaml:"server"`
	OpenAI  OpenAI  `yaml:"openai"`
	Google  Google  `yaml:"google"`
	Booking Booking `yaml:"booking"`
}

type OpenAI struct {
	Planner ModelConfig `yaml:"planner" validate:"required"`
	Reply   ModelConfig `yaml:"reply" validate:"required"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-4.1-nano" validate:"required"`
}

type Google struct {
	// OAuth web application client id
	ClientID string `yaml:"client_id" example:"1234567890-abc123def456.apps.googleusercontent.com" validate:"required"`
	// OAuth web application client secret
	ClientSecret string `yaml:"client_secret" example:"GOCSPX-abc123def456ghi789jkl012" validate:"required"`
	// OAuth callback url registered for the client
	RedirectURI string `yaml:"redirect_uri" example:"https://example.com/google/callback" validate:"required"`
	// Calendar to create events in
	CalendarID string `yaml:"calendar_id" example:"primary"`
}

type Booking struct {
	// IANA timezone name used for created events
	Timezone string `yaml:"timezone" example:"America/Los_Angeles"`
	// Title used when the user skips the title step
	DefaultTitle string `yaml:"default_title" example:"Scheduled Meeting"`
	// Meeting duration in minutes
	DurationMin int `yaml:"duration_min" example:"30"`
	// Number of transcript messages kept per session
	HistorySize int `yaml:"history_size" example:"20"`
	// Idle session lifetime in minutes, 0 disables expiry
	SessionTTLMin int `yaml:"session_ttl_min" example:"120"`
}

type Server struct {
	// Listen address
	Addr string `yaml:"addr" example:":7860"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

func LoadFile(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Addr == "" {
		result.Server.Addr = ":7860"
	}
	if result.Google.CalendarID == "" {
		result.Google.CalendarID = "primary"
	}
	if result.Booking.Timezone == "" {
		result.Booking.Timezone = "America/Los_Angeles"
	}
	if result.Booking.DefaultTitle == "" {
		result.Booking.DefaultTitle = "Scheduled Meeting"
	}
	if result.Booking.DurationMin == 0 {
		result.Booking.DurationMin = 30
	}
	if result.Booking.HistorySize == 0 {
		result.Booking.HistorySize = 20
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
