package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"qareport/adapters/excel"
	"qareport/internal/api"
	"qareport/internal/config"
	"qareport/internal/logging"
	"qareport/internal/session"
	"qareport/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.SetLevel(appConfig.Log.ParsedLevel())

	store := session.NewStore(appConfig.Session.TTL)
	reader := excel.NewDataReader(excel.DefaultReaderConfig())

	reports := api.NewReportHandler(store, reader, api.Options{
		MaxUploadBytes: appConfig.Server.MaxUploadBytes(),
		Title:          appConfig.Report.Title,
		Assets:         appConfig.Report.Assets(),
	})

	server, err := ui.NewServer(appConfig, store, reader, reports.Routes())
	if err != nil {
		log.Fatalf("Failed to initialize UI server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store.Run(ctx, appConfig.Session.SweepInterval)
		return nil
	})
	g.Go(func() error {
		return server.Start(ctx, ":"+appConfig.Server.Port)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Server stopped")
}
