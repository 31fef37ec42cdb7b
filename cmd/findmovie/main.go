package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"findmovie/internal/api"
	"findmovie/internal/config"
	"findmovie/internal/dataset"
	"findmovie/internal/logging"
	"findmovie/internal/service"
	"findmovie/internal/similarity"
	"findmovie/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var serve bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/findmovie/config.yaml if not provided)")
	flag.BoolVar(&serve, "serve", false, "Serve the HTTP API instead of the terminal UI")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	serve = serve || cfg.Server.Enabled

	logCfg := logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if !serve {
		// The terminal belongs to the UI; only errors reach stderr.
		logCfg.Level = "error"
	}
	logging.Init(logCfg)
	logging.Info().Str("config", cfgPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := dataset.NewCSVProvider(cfg.Data.MoviesPath, cfg.Data.RatingsPath, logging.Logger())
	svc := service.NewRecommendService(provider, service.Options{
		Similarity: similarity.Options{Workers: cfg.Similarity.Workers},
	}, logging.Logger())
	if err := svc.Load(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to build recommendation pipeline")
	}

	if serve {
		if err := runServer(ctx, cfg, svc); err != nil {
			logging.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	m := tui.New(svc, cfg.Recommend.DefaultCount, cfg.Recommend.MaxCount)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logging.Fatal().Err(err).Msg("terminal UI failed")
	}
}

func runServer(ctx context.Context, cfg *config.AppConfig, svc *service.RecommendServiceImpl) error {
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(api.NewHandler(svc, cfg.Recommend.DefaultCount, cfg.Recommend.MaxCount)),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
