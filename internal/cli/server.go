package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizwise-service/internal/app"
	"quizwise-service/internal/config"
	"quizwise-service/internal/gemini"
	"quizwise-service/internal/identity"
	"quizwise-service/internal/logger"
	"quizwise-service/internal/store"
	transport "quizwise-service/internal/transport/http"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	finalPort := listenPort(portFlag, cfg)

	kv, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	ai, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: config.TTLDuration(cfg.Gemini.Timeout, 60*time.Second),
	})
	if err != nil {
		return err
	}
	defer ai.Close()

	var resolver identity.Resolver = identity.Anonymous{}
	if cfg.Auth.JWTSecret != "" {
		resolver = identity.NewJWTResolver(cfg.Auth.JWTSecret)
	} else {
		log.Warn().Msg("JWT_SECRET is not set; every caller is anonymous")
	}

	service := app.NewQuizService(store.New(kv), ai, ai)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, resolver),
		ReadTimeout: 15 * time.Second,
		// generation and feedback calls can take most of a minute
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// listenPort prefers the --port flag, then the loaded config (PORT already applied).
func listenPort(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Server.Port
}
