package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"go.uber.org/fx"

	"github.com/learning-tokens/lms-connector/internal/deps"

	_ "github.com/learning-tokens/lms-connector/internal/deps/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := deps.Config()
	if err != nil {
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Invoke(deps.OTelSDK),
		deps.FxCommonModule,
		adapters(cfg),
		fx.Provide(
			AnnotateMiddleware(AccessLogMiddleware),
			AnnotateMiddleware(TracingMiddleware),
			AnnotateMiddleware(MachineMiddleware),
			AnnotateMiddleware(CorsMiddleware),
			fx.Annotate(
				GinEngine,
				fx.ParamTags(`group:"services"`, `group:"middlewares"`),
			),
		),
		fx.Invoke(GinLifecycle),
	)

	if err := app.Start(ctx); err != nil {
		slog.Error("error starting server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Gracefully shutting down server (Ctrl+C again to force stop)...")
	cancel()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("error stopping server", "error", err)
	}

	slog.Info("Server stopped")
}
