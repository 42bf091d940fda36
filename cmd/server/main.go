package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ignite/jellyfin-newsletter/internal/api"
	"github.com/ignite/jellyfin-newsletter/internal/config"
	"github.com/ignite/jellyfin-newsletter/internal/jellyfin"
	"github.com/ignite/jellyfin-newsletter/internal/mail"
	"github.com/ignite/jellyfin-newsletter/internal/metrics"
	"github.com/ignite/jellyfin-newsletter/internal/newsletter"
	"github.com/ignite/jellyfin-newsletter/internal/pkg/logger"
	"github.com/ignite/jellyfin-newsletter/internal/render"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log := logger.New("newsletter-server")

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("loading configuration failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	client := jellyfin.NewClient(cfg.Jellyfin)
	classifier := newsletter.NewClassifier(cfg.Jellyfin.BaseURL)
	builder := newsletter.NewBuilder(client, classifier, cfg.Jellyfin.BaseURL, cfg.Jellyfin.RecentLimit, log)

	renderer, err := render.NewService(cfg.Template)
	if err != nil {
		log.Fatal().Err(err).Msg("loading newsletter template failed")
	}

	var dispatcher newsletter.Dispatcher
	if cfg.Send {
		sender, err := mail.NewSender(cfg.Mail)
		if err != nil {
			log.Fatal().Err(err).Msg("configuring SMTP sender failed")
		}
		dispatcher = sender
	} else {
		log.Info().Msg("mail delivery disabled, newsletters are only written to disk")
	}

	svc := newsletter.NewService(client, builder, renderer, dispatcher, cfg, log)

	handler := api.NewHandler(svc, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := api.Server(addr, handler.Routes())

	go func() {
		log.Info().Str("addr", addr).Msg("admin server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("admin server stopped")
		}
	}()

	runCtx, cancelRuns := context.WithCancel(context.Background())
	go scheduleRuns(runCtx, svc, cfg.Polling.Interval(), log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down newsletter server")

	cancelRuns()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// scheduleRuns executes one run immediately and then one per polling
// interval until the context is cancelled. A failed run is logged and
// the schedule keeps going.
func scheduleRuns(ctx context.Context, svc *newsletter.Service, interval time.Duration, log zerolog.Logger) {
	runOnce := func() {
		if _, err := svc.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled newsletter run failed")
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
