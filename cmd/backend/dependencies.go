package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"

	"github.com/learning-tokens/lms-connector/httpapi"
	canvasservice "github.com/learning-tokens/lms-connector/httpapi/canvas"
	classroomservice "github.com/learning-tokens/lms-connector/httpapi/classroom"
	moodleservice "github.com/learning-tokens/lms-connector/httpapi/moodle"
	"github.com/learning-tokens/lms-connector/internal/auth"
	"github.com/learning-tokens/lms-connector/internal/canvas"
	"github.com/learning-tokens/lms-connector/internal/classroom"
	"github.com/learning-tokens/lms-connector/internal/config"
	"github.com/learning-tokens/lms-connector/internal/deps"
	"github.com/learning-tokens/lms-connector/internal/events"
	"github.com/learning-tokens/lms-connector/internal/gauth"
	"github.com/learning-tokens/lms-connector/internal/httputils"
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/workers"
)

// Version is reported by the API index.
const Version = "1.0.0"

// MoodleService creates the Moodle adapter service.
func MoodleService(client *moodle.Client, cfg config.Config, eventService *events.EventService) *moodleservice.MoodleService {
	return moodleservice.NewMoodleService(client, cfg.Moodle.Concurrency, eventService)
}

// CanvasService creates the Canvas adapter service.
func CanvasService(client *canvas.Client) *canvasservice.CanvasService {
	return canvasservice.NewCanvasService(client)
}

// ClassroomService creates the Google Classroom adapter service.
func ClassroomService(flow *gauth.Flow, storage auth.Storage, eventService *events.EventService) *classroomservice.ClassroomService {
	return classroomservice.NewClassroomService(flow, storage, classroom.NewFactory(), eventService)
}

// adapters provides the services of the configured adapters.
func adapters(cfg config.Config) fx.Option {
	var options []fx.Option

	if cfg.Moodle.Enabled() {
		options = append(options, fx.Provide(AnnotateService(MoodleService)))
	}
	if cfg.Canvas.Enabled() {
		options = append(options, fx.Provide(AnnotateService(CanvasService)))
	}
	if cfg.GAuth.Enabled() {
		options = append(options,
			deps.FxClassroomModule,
			fx.Provide(AnnotateService(ClassroomService)),
		)
	}

	return fx.Options(options...)
}

// MachineMiddleware creates a machine middleware that can be injected into gin.
func MachineMiddleware() Middleware {
	return Middleware{
		Handler: httputils.MachineMiddleware(),
	}
}

// CorsMiddleware creates a cors middleware that can be injected into gin.
func CorsMiddleware(cfg config.Config) Middleware {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "User-Agent", "Referer"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	return Middleware{
		Handler: cors.New(corsConfig),
	}
}

// AccessLogMiddleware creates a slog access log middleware that can be injected into gin.
func AccessLogMiddleware() Middleware {
	return Middleware{
		Handler: sloggin.NewWithConfig(slog.Default(), sloggin.Config{
			WithSpanID:  true,
			WithTraceID: true,
		}),
	}
}

// TracingMiddleware creates an OpenTelemetry middleware that can be injected into gin.
func TracingMiddleware() Middleware {
	return Middleware{
		Handler: otelgin.Middleware(deps.ServiceName),
	}
}

// GinEngine creates a gin engine.
func GinEngine(services []httpapi.Service, middlewares []Middleware, cfg config.Config) *gin.Engine {
	engine := gin.New()

	if err := engine.SetTrustedProxies(cfg.TrustProxies); err != nil {
		slog.Error("error setting trusted proxies", "error", err)
	}

	prometheus := ginprom.New(
		ginprom.Engine(engine),
		ginprom.Namespace("lms"),
		ginprom.Subsystem("http"),
		ginprom.Path("/metrics"),
	)
	engine.Use(prometheus.Instrument())

	for _, middleware := range middlewares {
		engine.Use(middleware.Handler)
	}

	engine.Use(gin.Recovery())

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, apiIndex(cfg))
	})

	api := engine.Group("/api")
	httpapi.Register(api, services...)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":              "Endpoint not found",
			"availableEndpoints": "Visit GET / for API documentation",
		})
	})

	return engine
}

// apiIndex lists the routes of the enabled adapters.
func apiIndex(cfg config.Config) gin.H {
	endpoints := map[string][]string{}

	if cfg.Moodle.Enabled() {
		endpoints["moodle"] = []string{
			"GET /api/moodle/test",
			"GET /api/moodle/courses",
			"GET /api/moodle/courses/:courseId",
			"GET /api/moodle/quizzes/:quizId/questions?includeAnswers=true",
			"GET /api/moodle/attempts/:attemptId",
			"GET /api/moodle/students/:userId/quiz/:quizId/attempts",
			"GET /api/moodle/students/:userId/course/:courseId",
		}
	}
	if cfg.Canvas.Enabled() {
		endpoints["canvas"] = []string{
			"GET /api/canvas/courses",
			"GET /api/canvas/courses/:courseId/assignments",
			"GET /api/canvas/courses/:courseId/students",
			"GET /api/canvas/courses/:courseId/quizzes/:quizId/grades",
			"GET /api/canvas/courses/:courseId/files",
			"GET /api/canvas/courses/:courseId/folders",
		}
	}
	if cfg.GAuth.Enabled() {
		endpoints["classroom"] = []string{
			"GET /api/classroom/auth",
			"GET /api/classroom/callback",
			"GET /api/classroom/status",
			"POST /api/classroom/logout",
			"GET /api/classroom/profile",
			"GET /api/classroom/courses",
			"POST /api/classroom/courses",
			"GET /api/classroom/courses/:courseId",
			"GET /api/classroom/courses/:courseId/teachers",
			"GET /api/classroom/courses/:courseId/students",
			"GET /api/classroom/courses/:courseId/courseWork",
			"POST /api/classroom/courses/:courseId/courseWork",
			"GET /api/classroom/courses/:courseId/courseWork/:courseWorkId/studentSubmissions",
			"PATCH /api/classroom/courses/:courseId/courseWork/:courseWorkId/studentSubmissions/:id",
		}
	}

	return gin.H{
		"message":   "LMS connector API",
		"version":   Version,
		"adapters":  slices.Sorted(maps.Keys(endpoints)),
		"endpoints": endpoints,
		"metrics":   "/metrics",
	}
}

// GinLifecycle starts the gin engine.
func GinLifecycle(lifecycle fx.Lifecycle, engine *gin.Engine, cfg config.Config) {
	httpCtx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Port),
				Handler: engine,
			}

			go func() {
				slog.Info("gin engine starting", "address", srv.Addr, "proto", cfg.Server.GetProto())

				if cfg.Server.CertFile != nil && cfg.Server.KeyFile != nil {
					if err := srv.ListenAndServeTLS(*cfg.Server.CertFile, *cfg.Server.KeyFile); err != nil {
						if errors.Is(err, http.ErrServerClosed) {
							return
						}

						slog.Error("error running gin engine with TLS", "error", err)
					}
				} else {
					if err := srv.ListenAndServe(); err != nil {
						if errors.Is(err, http.ErrServerClosed) {
							return
						}

						slog.Error("error running gin engine", "error", err)
					}
				}
			}()

			go func() {
				<-httpCtx.Done()
				if err := srv.Shutdown(context.Background()); err != nil {
					slog.Error("error shutting down gin engine", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return nil
			default:
				cancel()
			}

			// Pending analytics events are flushed before the PostHog client closes.
			workers.Global.Wait()

			return nil
		},
	})
}

// Middleware is a middleware that can be injected into gin.
type Middleware struct {
	Handler gin.HandlerFunc
}

// AnnotateMiddleware annotates a middleware function to be injected into gin.
func AnnotateMiddleware(f any) any {
	return fx.Annotate(
		f,
		fx.ResultTags(`group:"middlewares"`),
	)
}

// AnnotateService annotates a service function to be injected into gin.
func AnnotateService(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(httpapi.Service)),
		fx.ResultTags(`group:"services"`),
	)
}
