package main

import (
	"context"
	"flag"
	"os"

	"github.com/ignite/jellyfin-newsletter/internal/config"
	"github.com/ignite/jellyfin-newsletter/internal/jellyfin"
	"github.com/ignite/jellyfin-newsletter/internal/mail"
	"github.com/ignite/jellyfin-newsletter/internal/newsletter"
	"github.com/ignite/jellyfin-newsletter/internal/pkg/logger"
	"github.com/ignite/jellyfin-newsletter/internal/render"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log := logger.New("newsletter")

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("loading configuration failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

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

	report, err := svc.Run(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("newsletter run failed")
		os.Exit(1)
	}
	if report.Succeeded() == 0 {
		os.Exit(1)
	}
}
