package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cryptocourse/internal/config"
	"cryptocourse/internal/httpx"
	"cryptocourse/internal/logging"
	"cryptocourse/internal/relay" // The internal package for this service

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const relayLongDesc string = `Run the chat relay.

The relay accepts a conversation on POST /api/chat, forwards it to Gemini and
streams the answer back as server-sent events.

The Gemini key is read from VITE_GEMINI_API_KEY or GEMINI_API_KEY on every request.
Other settings come from flags, CHATRELAY_* environment variables or chatrelay.yaml.`

// main is the entry point for the ChatRelayService.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flagKeys maps CLI flags onto their viper keys.
var flagKeys = map[string]string{
	"port":               "port",
	"debug":              "debug",
	"model":              "gemini.model",
	"strict-validation":  "relay.strict_validation",
	"system-prompt-file": "relay.system_prompt_file",
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "chatrelayservice",
		Short:        "Stream Gemini answers to the course chat",
		Long:         relayLongDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.InitViper(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd); err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default ./chatrelay.yaml when present)")
	cmd.Flags().StringP("port", "p", "", "Port to listen on (env PORT)")
	cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.Flags().String("model", "", "Gemini model name")
	cmd.Flags().Bool("strict-validation", false, "Answer malformed chat payloads with 400 instead of 500")
	cmd.Flags().String("system-prompt-file", "", "File that replaces the built in tutor persona")

	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Debug)
	defer logger.Sync()

	r, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.GeminiAPIKey() == "" {
		// Not fatal: the key is resolved per request and may be provided later.
		logger.Warn("no gemini api key configured, chat requests will fail until one is set")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("ChatRelayService starting",
		zap.String("addr", cfg.ListenAddr()),
		zap.String("model", cfg.Gemini.Model),
	)
	return httpx.Serve(ctx, cfg.ListenAddr(), r, logger)
}

// newRouter wires the client, service and handler layers into a chi router.
func newRouter(cfg *config.Config, logger *zap.Logger) (http.Handler, error) {
	systemPrompt := relay.DefaultSystemPrompt()
	if cfg.Relay.SystemPromptFile != "" {
		var err error
		systemPrompt, err = relay.LoadSystemPrompt(cfg.Relay.SystemPromptFile)
		if err != nil {
			return nil, err
		}
	}

	// External client.
	geminiClient := relay.NewHTTPGeminiClient(cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.HeaderTimeout, logger)

	// Business logic layer. The key func is called on every request.
	relayService := relay.NewService(geminiClient, cfg.GeminiAPIKey,
		relay.WithSystemPrompt(systemPrompt),
		relay.WithGenerationConfig(relay.NewGenerationConfig(
			cfg.Gemini.Temperature,
			cfg.Gemini.MaxOutputTokens,
			cfg.Gemini.TopP,
			cfg.Gemini.TopK,
		)),
		relay.WithLogger(logger),
	)

	// API layer.
	relayHandler := relay.NewHandler(relayService, logger, cfg.Relay.StrictValidation)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer) // Lets http.ErrAbortHandler through to cut broken streams

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ChatRelayService OK"))
	})

	relayHandler.RegisterRoutes(r)

	return r, nil
}
