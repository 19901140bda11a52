package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("MOODLE_URL", "https://moodle.example.com")
	t.Setenv("MOODLE_TOKEN", "secret")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")
	t.Setenv("REDIS_PORT", "6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://moodle.example.com", cfg.Moodle.URL)
	assert.Equal(t, "secret", cfg.Moodle.Token)
	assert.Equal(t, 4, cfg.Moodle.Concurrency)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, OTelExporterNone, cfg.OTel.Exporter)
	assert.Equal(t, OTLPProtocolHTTP, cfg.OTel.Protocol)
	assert.Nil(t, cfg.Server.CertFile)
	assert.Equal(t, "http", cfg.Server.GetProto())

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	moodle := MoodleConfig{URL: "https://moodle.example.com", Token: "secret", Concurrency: 4}

	t.Run("no adapter", func(t *testing.T) {
		err := Config{}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one of")
	})

	t.Run("moodle without token", func(t *testing.T) {
		err := Config{Moodle: MoodleConfig{URL: "https://moodle.example.com", Concurrency: 4}}.Validate()
		assert.EqualError(t, err, "MOODLE_TOKEN is required")
	})

	t.Run("moodle with zero concurrency", func(t *testing.T) {
		err := Config{Moodle: MoodleConfig{URL: "https://moodle.example.com", Token: "secret"}}.Validate()
		assert.EqualError(t, err, "MOODLE_CONCURRENCY must be at least 1")
	})

	t.Run("canvas without token", func(t *testing.T) {
		err := Config{Canvas: CanvasConfig{APIBase: "https://canvas.example.com/api/v1"}}.Validate()
		assert.EqualError(t, err, "CANVAS_API_TOKEN is required")
	})

	t.Run("classroom requires secret", func(t *testing.T) {
		err := Config{GAuth: GAuthConfig{ClientID: "id"}}.Validate()
		assert.EqualError(t, err, "GAUTH_CLIENT_SECRET is required")
	})

	t.Run("classroom requires redirect", func(t *testing.T) {
		err := Config{GAuth: GAuthConfig{ClientID: "id", ClientSecret: "secret"}}.Validate()
		assert.EqualError(t, err, "GAUTH_REDIRECT_URL or SERVER_URI is required")
	})

	t.Run("classroom requires redis", func(t *testing.T) {
		err := Config{
			GAuth:  GAuthConfig{ClientID: "id", ClientSecret: "secret"},
			Server: ServerConfig{URI: "https://lms.example.com"},
		}.Validate()
		assert.EqualError(t, err, "REDIS_HOST is required")
	})

	t.Run("bad otel exporter", func(t *testing.T) {
		err := Config{Moodle: moodle, OTel: OTelConfig{Exporter: "jaeger"}}.Validate()
		assert.EqualError(t, err, "OTEL_EXPORTER must be none, stdout or otlp")
	})

	t.Run("bad otlp protocol", func(t *testing.T) {
		err := Config{Moodle: moodle, OTel: OTelConfig{Exporter: OTelExporterOTLP, Protocol: "http/json"}}.Validate()
		assert.EqualError(t, err, "OTEL_EXPORTER_OTLP_PROTOCOL must be grpc or http/protobuf")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Config{
			Moodle: moodle,
			Canvas: CanvasConfig{APIBase: "https://canvas.example.com/api/v1", APIToken: "token"},
			GAuth:  GAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "https://lms.example.com/cb"},
			Redis:  RedisConfig{Host: "localhost", Port: 6379},
			OTel:   OTelConfig{Exporter: OTelExporterOTLP, Protocol: OTLPProtocolGRPC},
		}
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_ClassroomRedirectURL(t *testing.T) {
	assert.Equal(t, "https://lms.example.com/cb", Config{GAuth: GAuthConfig{RedirectURL: "https://lms.example.com/cb"}}.ClassroomRedirectURL())
	assert.Equal(t, "https://lms.example.com/api/classroom/callback", Config{Server: ServerConfig{URI: "https://lms.example.com/"}}.ClassroomRedirectURL())
}

func TestServerConfig_GetProto(t *testing.T) {
	cert, key := "cert.pem", "key.pem"
	assert.Equal(t, "https", ServerConfig{CertFile: &cert, KeyFile: &key}.GetProto())
	assert.Equal(t, "http", ServerConfig{CertFile: &cert}.GetProto())
}
