package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"meetagent/app/client/googlecal"
	"meetagent/app/config"
	"meetagent/app/server"
	"meetagent/app/service/calendar"
	"meetagent/app/service/engine"
	"meetagent/app/service/planner"
	"meetagent/app/service/reply"
	"meetagent/app/service/session"
	"meetagent/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, googlecal.NewClient)
	do.Provide(di, session.New)
	do.Provide(di, planner.New)
	do.Provide(di, reply.New)
	do.Provide(di, calendar.New)
	do.Provide(di, engine.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	g, gctx := errgroup.WithContext(appCtx)

	g.Go(func() error {
		return do.MustInvoke[*server.Server](di).Run(gctx)
	})

	if err = g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}
}
