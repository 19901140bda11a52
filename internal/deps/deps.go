// Package deps contains the dependencies for the backend and admin-cli.
package deps

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisotel"
	"go.uber.org/fx"

	"github.com/learning-tokens/lms-connector/internal/auth"
	"github.com/learning-tokens/lms-connector/internal/canvas"
	"github.com/learning-tokens/lms-connector/internal/config"
	"github.com/learning-tokens/lms-connector/internal/events"
	"github.com/learning-tokens/lms-connector/internal/gauth"
	"github.com/learning-tokens/lms-connector/internal/metrics"
	"github.com/learning-tokens/lms-connector/internal/moodle"
)

// Config loads the environment variables from the .env file and returns a config.Config.
func Config() (config.Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("error creating config", "error", err)
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("error validating config", "error", err)
		return config.Config{}, err
	}

	return cfg, nil
}

// RedisClient creates a traced rueidis.Client.
func RedisClient(cfg config.Config) (rueidis.Client, error) {
	client, err := rueidisotel.NewClient(rueidis.ClientOption{
		InitAddress: []string{
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		},
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		slog.Error("error creating redis client", "error", err)
		return nil, err
	}

	return client, nil
}

// RedisAuthStorage creates an auth.RedisStorage.
func RedisAuthStorage(redisClient rueidis.Client) *auth.RedisStorage {
	return auth.NewRedisStorage(redisClient)
}

// AuthStorage exposes the Redis session store as an auth.Storage.
func AuthStorage(storage *auth.RedisStorage) auth.Storage {
	return storage
}

// SessionCollector registers the live session gauge with the default
// Prometheus registry, which is served at /metrics.
func SessionCollector(storage *auth.RedisStorage) error {
	err := prometheus.Register(metrics.NewSessionCollector(storage))

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return nil
	}

	return err
}

// GAuthFlow creates the OAuth flow of the Classroom adapter.
func GAuthFlow(cfg config.Config, redisClient rueidis.Client) *gauth.Flow {
	oauthConfig := gauth.BuildOAuthConfig(cfg.GAuth, cfg.ClassroomRedirectURL())
	return gauth.NewFlow(oauthConfig, gauth.NewRedisStateStorage(redisClient))
}

// PostHogClient creates a posthog.Client. It returns nil when no API key is configured.
func PostHogClient(lifecycle fx.Lifecycle, cfg config.Config) (posthog.Client, error) {
	if cfg.PostHog.APIKey == "" {
		slog.Info("posthog is not configured, events are dropped")
		return nil, nil
	}

	client, err := posthog.NewWithConfig(cfg.PostHog.APIKey, posthog.Config{
		Endpoint: cfg.PostHog.Host,
	})
	if err != nil {
		slog.Error("error creating posthog client", "error", err)
		return nil, err
	}

	lifecycle.Append(fx.StopHook(client.Close))

	return client, nil
}

// EventService creates an events.EventService.
func EventService(posthogClient posthog.Client) *events.EventService {
	return events.NewEventService(posthogClient)
}

// MoodleClient creates a moodle.Client.
func MoodleClient(cfg config.Config) *moodle.Client {
	return moodle.NewClient(cfg.Moodle)
}

// CanvasClient creates a canvas.Client.
func CanvasClient(cfg config.Config) *canvas.Client {
	return canvas.NewClient(cfg.Canvas)
}

// FxCommonModule provides the upstream clients and analytics. The config.Config
// is supplied by the caller, which loads it with Config.
var FxCommonModule = fx.Module("common",
	fx.Provide(MoodleClient),
	fx.Provide(CanvasClient),
	fx.Provide(PostHogClient),
	fx.Provide(EventService),
)

// FxClassroomModule provides the Redis-backed sessions of the Classroom adapter.
var FxClassroomModule = fx.Module("classroom",
	fx.Provide(RedisClient),
	fx.Provide(RedisAuthStorage),
	fx.Provide(AuthStorage),
	fx.Provide(GAuthFlow),
	fx.Invoke(SessionCollector),
)
