// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "portfolio-backend",
	Short:        "Portfolio API and admin server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace portfolio content with sample data and create the admin user",
	Long: `Clears education, projects, skills, certifications, social links and the profile,
inserts a sample portfolio and creates (or resets) the admin user from
ADMIN_USERNAME and ADMIN_PASSWORD. Contact messages are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := setup()
		if err != nil {
			return err
		}
		return seedDatabase(cmd.Context(), db, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, configures logging and opens the database with
// the schema in place.
func setup() (Config, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("configuration error", "error", err)
		return Config{}, nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	db, err := openDatabase(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		return Config{}, nil, err
	}
	if err := migrate(db); err != nil {
		slog.Error("schema creation failed", "error", err)
		return Config{}, nil, err
	}
	slog.Info("database schema ready")
	return cfg, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	if !cfg.Mail.Configured() {
		slog.Warn("email settings incomplete; contact messages will be saved but not emailed")
	}

	app, err := NewApp(cfg, db, NewSMTPNotifier(cfg.Mail))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("portfolio backend listening", "port", cfg.Port, "debug", cfg.Debug)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server closed", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
