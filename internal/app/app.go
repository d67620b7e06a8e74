// Package app wires the facegate components from a Config and runs the
// operator console together with the optional metrics endpoint.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/facegate/internal/backup"
	"github.com/dmitrijs2005/facegate/internal/cli"
	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/config"
	"github.com/dmitrijs2005/facegate/internal/credentials"
	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/dmitrijs2005/facegate/internal/features"
	"github.com/dmitrijs2005/facegate/internal/landmark"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/matcher"
	"github.com/dmitrijs2005/facegate/internal/metrics"
	"github.com/dmitrijs2005/facegate/internal/netx"
	"github.com/dmitrijs2005/facegate/internal/vault"
	"github.com/dmitrijs2005/facegate/internal/workflow"
)

const tokenSecretSize = 32

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	console *cli.App
}

// loadKey returns the store key from the passphrase when one is set, and
// from the key file otherwise.
func loadKey(ctx context.Context, c *config.Config, logger logging.Logger) ([]byte, error) {
	if c.KeyPassphrase != "" {
		return cryptox.KeyFromPassphrase(ctx, c.KeyPassphrase, c.SaltPath(), logger)
	}
	return cryptox.LoadOrCreateKey(ctx, c.KeyPath, logger)
}

// NewApp prepares the encrypted store and builds the workflows. The console
// reads from in and writes to out.
func NewApp(ctx context.Context, c *config.Config, source landmark.Source, in io.Reader, out io.Writer, logger logging.Logger) (*App, error) {
	key, err := loadKey(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("key init error: %w", err)
	}

	v := vault.New(c.StorePath, key, logger)
	store := credentials.New(v, c.PasswordCost, logger)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	secret := []byte(c.TokenSecret)
	if len(secret) == 0 {
		secret = common.GenerateRandByteArray(tokenSecretSize)
		logger.Info(ctx, "using a per-process grant secret")
	}

	m := metrics.New()
	if n, err := store.Count(ctx); err == nil {
		m.EnrolledUsers.Set(float64(n))
	}

	extractor := features.NewExtractor(source, c.MaxImageDimension, logger)
	svc := workflow.NewService(
		extractor,
		store,
		matcher.New(c.MatchThreshold),
		m,
		workflow.TokenConfig{Secret: secret, TTL: c.TokenTTL},
		logger,
	)

	uploader := backup.NewUploader(backup.Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
	}, v, logger)

	console := cli.NewApp(cli.Deps{
		Workflows: svc,
		Records:   store,
		Detector:  extractor,
		Backup:    uploader,
		Metrics:   m,
	}, in, out, logger)

	return &App{config: c, logger: logger, metrics: m, console: console}, nil
}

func (app *App) startMetricsServer(ctx context.Context) {
	if err := netx.ListenAndServe(ctx, app.config.MetricsAddr, app.metrics.Handler(), app.logger); err != nil {
		app.logger.Error(ctx, "metrics server failed", "error", err)
	}
}

// Run serves the console until it exits or ctx is cancelled. A console
// blocked on input is left behind on cancellation. The metrics endpoint,
// when configured, is stopped before Run returns.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting facegate...", "store", app.config.StorePath)

	var wg sync.WaitGroup

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx)
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.console.Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")
	}

	cancelFunc()
	wg.Wait()
}
