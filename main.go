package main

import (
	"context"
	"fmt"
	"os"

	"noodle_backend/api"
	"noodle_backend/cache"
	"noodle_backend/core"
	"noodle_backend/imagegen"
	"noodle_backend/logging"
	"noodle_backend/metrics"
	"noodle_backend/service"
	"noodle_backend/shutdown"
	"noodle_backend/startup"
	"noodle_backend/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	config, err := core.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(core.ExitCodeConfigError)
	}

	logger, err := logging.NewLogger(isDevelopment, config.LogFilePath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.String("listen", fmt.Sprintf("%s:%d", config.Host, config.Port)),
		zap.String("cache_backend", config.CacheBackend),
		zap.String("artifacts_dir", config.ArtifactsDir),
		zap.String("image_model", config.OpenAIImageModel),
		zap.Int("max_retries", config.MaxRetries),
		zap.Duration("retry_delay", config.RetryDelay),
		zap.Duration("ai_timeout", config.AITimeout),
		zap.Bool("dev_mode", isDevelopment))

	os.Exit(run(config, logger))
}

// run wires the service and blocks until shutdown. Returns the process exit
// code so main can defer logger.Sync before exiting.
func run(config *core.Config, logger *logging.Logger) int {
	manager := shutdown.NewManager(logger, shutdown.WithTimeout(config.ShutdownTimeout))
	manager.Start()

	index, err := cache.NewIndex(config, logger)
	if err != nil {
		logger.Error("failed to initialize cache index", zap.Error(err))
		return core.ExitCodeError
	}
	manager.Register("cache index", 10, func(ctx context.Context) error {
		return index.Close()
	})

	suite := startup.NewSuite(config, index).WithTimeout(config.AITimeout)
	result := suite.Run(manager.Context())
	if !result.Success {
		for _, step := range result.Steps {
			if step.Status == startup.StepFailed {
				logger.Error("startup validation step failed",
					zap.String("step", step.Name),
					zap.Error(step.Error))
			}
		}
		_ = manager.Shutdown()
		return core.ExitCodeConfigError
	}
	logger.Info("startup validation passed",
		zap.Int("checks", result.PassedSteps),
		zap.Duration("duration", result.Duration))

	store, err := storage.NewDiskStore(config.ArtifactsDir, config.PublicURL())
	if err != nil {
		logger.Error("failed to initialize artifact store", zap.Error(err))
		_ = manager.Shutdown()
		return core.ExitCodeError
	}

	provider, err := imagegen.NewProviderFromConfig(config, logger)
	if err != nil {
		logger.Error("failed to initialize generation provider", zap.Error(err))
		_ = manager.Shutdown()
		return core.ExitCodeConfigError
	}

	generator, err := imagegen.NewRetryingGenerator(provider, logger,
		imagegen.WithMaxAttempts(config.MaxRetries),
		imagegen.WithBaseDelay(config.RetryDelay),
		imagegen.WithAttemptTimeout(config.AITimeout))
	if err != nil {
		logger.Error("failed to initialize generator", zap.Error(err))
		_ = manager.Shutdown()
		return core.ExitCodeError
	}

	orchestrator, err := service.NewOrchestrator(index, store, generator, logger,
		imagegen.Options{Size: config.ImageSize})
	if err != nil {
		logger.Error("failed to initialize pipeline", zap.Error(err))
		_ = manager.Shutdown()
		return core.ExitCodeError
	}

	metrics.Register()

	handlers := api.NewHandlers(orchestrator, logger)
	server := api.NewServer(config, logger, handlers, store.Dir())
	manager.Register("http server", 0, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	exitCode := core.ExitCodeSuccess
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			exitCode = core.ExitCodeError
		}
		manager.Trigger()
	case <-manager.Context().Done():
	}

	if err := manager.Shutdown(); err != nil {
		logger.Error("shutdown finished with errors", zap.Error(err))
		if exitCode == core.ExitCodeSuccess {
			exitCode = core.ExitCodeError
		}
	}

	logger.Info("goodbye")
	return exitCode
}
