package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/BetterCallFirewall/PhishGuard/internal/classifier"
	"github.com/BetterCallFirewall/PhishGuard/internal/config"
	"github.com/BetterCallFirewall/PhishGuard/internal/forest"
	"github.com/BetterCallFirewall/PhishGuard/internal/logging"
	"github.com/BetterCallFirewall/PhishGuard/internal/storage"
	"github.com/BetterCallFirewall/PhishGuard/internal/web"
	"github.com/BetterCallFirewall/PhishGuard/internal/websocket"
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "train",
			Usage:  "train the classifier from the configured dataset and save the model",
			Action: train,
		},
		{
			Name:   "serve",
			Usage:  "serve the URL check form using the saved model",
			Action: serve,
		},
	}
}

// setup loads configuration and configures logging for a command.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cli.NewExitError("Failed to load config: "+err.Error(), 1)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	return cfg, nil
}

func train(c *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := forest.DefaultParams()
	params.Workers = cfg.Training.Workers
	tc := classifier.DefaultTrainerConfig(cfg.Paths.Dataset, cfg.Paths.Model)
	tc.Learner = forest.NewLearner(params)

	res, err := classifier.NewTrainer(tc).Run(ctx)
	if err != nil {
		return cli.NewExitError("Training failed: "+err.Error(), 1)
	}

	log.WithFields(log.Fields{
		"model":     res.ModelPath,
		"train":     res.TrainSize,
		"test":      res.TestSize,
		"max_depth": res.MaxDepth,
		"duration":  res.Duration.String(),
	}).Infof("✅ Training finished, %s", res.Report.Summary())
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	svc, err := classifier.Load(cfg.Paths.Model)
	if err != nil {
		return cli.NewExitError("Failed to load model: "+err.Error(), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// история и живая лента показывают чужие URL, поэтому включаются явно
	var store *storage.MemoryStorage
	if cfg.Server.HistorySize > 0 {
		store = storage.NewMemoryStorage(cfg.Server.HistorySize)
	}
	var hub *websocket.Hub
	if cfg.Server.LiveFeed {
		hub = websocket.NewHub()
		go hub.Run(ctx)
	}

	server := web.NewServer(cfg.Server, svc, store, hub)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		if err != nil {
			return cli.NewExitError("Web server failed: "+err.Error(), 1)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return cli.NewExitError("Shutdown failed: "+err.Error(), 1)
	}
	return nil
}
