package config

import (
	"errors"
	"strings"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	TrustProxies   []string `env:"TRUST_PROXIES"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	Server  ServerConfig  `envPrefix:"SERVER_"`
	Moodle  MoodleConfig  `envPrefix:"MOODLE_"`
	Canvas  CanvasConfig  `envPrefix:"CANVAS_"`
	GAuth   GAuthConfig   `envPrefix:"GAUTH_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	PostHog PostHogConfig `envPrefix:"POSTHOG_"`
	OTel    OTelConfig    `envPrefix:"OTEL_"`
}

func (c Config) Validate() error {
	if !c.Moodle.Enabled() && !c.Canvas.Enabled() && !c.GAuth.Enabled() {
		return errors.New("at least one of MOODLE_URL, CANVAS_API_BASE or GAUTH_CLIENT_ID is required")
	}

	if err := c.Moodle.Validate(); err != nil {
		return err
	}
	if err := c.Canvas.Validate(); err != nil {
		return err
	}

	if c.GAuth.Enabled() {
		if err := c.GAuth.Validate(); err != nil {
			return err
		}
		if c.GAuth.RedirectURL == "" && c.Server.URI == "" {
			return errors.New("GAUTH_REDIRECT_URL or SERVER_URI is required")
		}
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	if err := c.OTel.Validate(); err != nil {
		return err
	}

	return nil
}

// ClassroomRedirectURL returns the OAuth callback URL of the Google Classroom adapter.
func (c Config) ClassroomRedirectURL() string {
	if c.GAuth.RedirectURL != "" {
		return c.GAuth.RedirectURL
	}

	return strings.TrimSuffix(c.Server.URI, "/") + "/api/classroom/callback"
}

type ServerConfig struct {
	URI      string  `env:"URI"`
	CertFile *string `env:"CERT_FILE"`
	KeyFile  *string `env:"KEY_FILE"`
}

// GetProto returns the protocol the server is listening on.
func (c ServerConfig) GetProto() string {
	if c.CertFile != nil && c.KeyFile != nil {
		return "https"
	}

	return "http"
}

type MoodleConfig struct {
	URL         string `env:"URL"`
	Token       string `env:"TOKEN"`
	Concurrency int    `env:"CONCURRENCY" envDefault:"4"`
}

// Enabled reports whether the Moodle adapter is configured.
func (c MoodleConfig) Enabled() bool {
	return c.URL != ""
}

func (c MoodleConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Token == "" {
		return errors.New("MOODLE_TOKEN is required")
	}
	if c.Concurrency < 1 {
		return errors.New("MOODLE_CONCURRENCY must be at least 1")
	}

	return nil
}

type CanvasConfig struct {
	APIBase  string `env:"API_BASE"`
	APIToken string `env:"API_TOKEN"`
}

// Enabled reports whether the Canvas adapter is configured.
func (c CanvasConfig) Enabled() bool {
	return c.APIBase != ""
}

func (c CanvasConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.APIToken == "" {
		return errors.New("CANVAS_API_TOKEN is required")
	}

	return nil
}

type RedisConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

func (c RedisConfig) Validate() error {
	if c.Host == "" {
		return errors.New("REDIS_HOST is required")
	}
	if c.Port == 0 {
		return errors.New("REDIS_PORT is required")
	}

	return nil
}

type GAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Enabled reports whether the Google Classroom adapter is configured.
func (c GAuthConfig) Enabled() bool {
	return c.ClientID != ""
}

func (c GAuthConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("GAUTH_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return errors.New("GAUTH_CLIENT_SECRET is required")
	}

	return nil
}

type PostHogConfig struct {
	APIKey string `env:"API_KEY"`
	Host   string `env:"HOST"`
}

const (
	OTelExporterNone   = "none"
	OTelExporterStdout = "stdout"
	OTelExporterOTLP   = "otlp"

	OTLPProtocolGRPC = "grpc"
	OTLPProtocolHTTP = "http/protobuf"
)

type OTelConfig struct {
	Exporter string `env:"EXPORTER" envDefault:"none"`
	Protocol string `env:"EXPORTER_OTLP_PROTOCOL" envDefault:"http/protobuf"`
}

func (c OTelConfig) Validate() error {
	switch c.Exporter {
	case OTelExporterNone, OTelExporterStdout:
		return nil
	case OTelExporterOTLP:
		if c.Protocol != OTLPProtocolGRPC && c.Protocol != OTLPProtocolHTTP {
			return errors.New("OTEL_EXPORTER_OTLP_PROTOCOL must be grpc or http/protobuf")
		}
		return nil
	default:
		return errors.New("OTEL_EXPORTER must be none, stdout or otlp")
	}
}
