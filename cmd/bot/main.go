package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/mirrorops/settings-bot/internal/bot"
	"github.com/mirrorops/settings-bot/internal/config"
	"github.com/mirrorops/settings-bot/internal/log"
)

func main() {
	cfgPath := flag.String("config", config.DefaultConfigPath(), "path to config.json")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("main").Err(err).Msg("config error")
	}

	app, err := bot.New(cfg)
	if err != nil {
		log.Fatal("main").Err(err).Msg("init error")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("main").Msg("shutting down")
	}()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("main").Err(err).Msg("run error")
	}
}
