package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptocourse/internal/config"
	"cryptocourse/internal/httpx"
	"cryptocourse/internal/logging"
	"cryptocourse/internal/progress" // internal package for chat history and lesson progress

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const progressLongDesc string = `Run the progress service.

It stores the students' chat history per lesson day and their lesson
completion, detecting when the tutor announces that a lesson is finished.

The Postgres connection string is read from DB_CONNECTION_STRING or
CHATRELAY_DATABASE_URL. Requests must carry the caller in the X-User-ID header.`

// main is the entry point for the ProgressService.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flagKeys maps CLI flags onto their viper keys.
var flagKeys = map[string]string{
	"port":    "port",
	"debug":   "debug",
	"db-url":  "database.url",
	"migrate": "database.migrate",
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "progressservice",
		Short:        "Store chat history and lesson progress",
		Long:         progressLongDesc,
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
	cmd.Flags().String("db-url", "", "Postgres connection string (env DB_CONNECTION_STRING)")
	cmd.Flags().Bool("migrate", false, "Create missing tables on startup")

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

	// Need the database connection string. Fail fast if it's not set.
	if cfg.Database.URL == "" {
		return errors.New("DB_CONNECTION_STRING is not set")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close() // Make sure the connection is closed on exit.
	logger.Info("database connected")

	if cfg.Database.Migrate {
		if err := progress.EnsureSchema(ctx, db); err != nil {
			return err
		}
		logger.Info("database schema ensured")
	}

	r := newRouter(progress.NewPostgresRepository(db), logger)

	logger.Info("ProgressService starting", zap.String("addr", cfg.ListenAddr()))
	return httpx.Serve(ctx, cfg.ListenAddr(), r, logger)
}

// newRouter wires the repository, service and handler layers into a chi router.
func newRouter(repo progress.Repository, logger *zap.Logger) http.Handler {
	// Business logic layer.
	progressService := progress.NewService(repo, logger)

	// API layer. Takes the service.
	progressHandler := progress.NewHandler(progressService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ProgressService OK"))
	})

	progressHandler.RegisterRoutes(r)

	return r
}

// connectDB is a helper to open and verify the database connection.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping ensures the connection is actually valid.
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
