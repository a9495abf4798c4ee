package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/RecipeApp/internal/config"
	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/handler"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// Dependencies — собранные контейнером компоненты приложения.
// Files, EventConsumer и HealthChecks могут отсутствовать.
type Dependencies struct {
	RecipeUseCase usecase.RecipeUseCase
	AuthorUseCase usecase.AuthorUseCase
	TagUseCase    usecase.TagUseCase
	Files         usecase.FileStorage
	EventConsumer ports.RecipeEventConsumer
	HealthChecks  map[string]handler.HealthCheck
	UploadLimiter chan struct{}
	// Closers вызываются при завершении в обратном порядке
	Closers []func() error
}

type App struct {
	Config *config.Config
	logger *slog.Logger
	deps   Dependencies
}

func NewApp(cfg *config.Config, logger *slog.Logger, deps Dependencies) *App {
	if deps.UploadLimiter == nil {
		deps.UploadLimiter = make(chan struct{}, 5)
	}
	return &App{
		Config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case "server":
		err = runServer(ctx, a.Config, a.deps, a.logger)
	case "worker":
		err = runWorker(ctx, a.deps, a.logger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}
	if err != nil {
		return err
	}

	a.logger.Info("stopped gracefully")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.deps.Closers) - 1; i >= 0; i-- {
		if err := a.deps.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.deps.Closers = nil
	return errors.Join(errs...)
}
