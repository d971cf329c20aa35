package app

import (
	"context"
	"errors"

	"github.com/flemzord/pigram/internal/checkpoint"
	"github.com/flemzord/pigram/internal/clone"
	"github.com/flemzord/pigram/internal/notify"
	"github.com/flemzord/pigram/internal/render"
	"github.com/flemzord/pigram/internal/telemetry"
)

// progressEvery is the interval of the message counter line.
const progressEvery = 100

// NewCloner builds a Cloner over client with checkpoints under the data
// directory.
func (e *Env) NewCloner(client clone.Client) (*clone.Cloner, error) {
	return clone.New(clone.Config{
		Client:  client,
		Store:   e.CheckpointStore(),
		Options: e.Config.Clone.Options(),
		Logger:  e.Logger,
	})
}

// CheckpointStore returns the file store holding resume markers.
func (e *Env) CheckpointStore() *checkpoint.FileStore {
	return checkpoint.NewFileStore(e.Config.CheckpointPath(e.DataDir))
}

// Notifier returns the configured completion notifier, or nil.
func (e *Env) Notifier() *notify.Notifier {
	n := e.Config.Notify
	if n == nil {
		return nil
	}
	return notify.New(notify.NewClient(n.BotToken, n.APIURL), notify.Options{
		ChatID:       n.ChatID,
		OnlyFailures: n.OnlyFailures,
		Logger:       e.Logger,
	})
}

// Telemetry bundles the optional metrics server and trace exporter.
type Telemetry struct {
	Metrics  *telemetry.Metrics
	server   *telemetry.Server
	shutdown telemetry.ShutdownFunc
}

// StartTelemetry starts the metrics server and trace export when configured.
func (e *Env) StartTelemetry(ctx context.Context) (*Telemetry, error) {
	cfg := e.Config.Telemetry
	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
		Version:  e.Version,
	})
	if err != nil {
		return nil, err
	}

	t := &Telemetry{Metrics: telemetry.NewMetrics(), shutdown: shutdown}
	if cfg.MetricsAddr != "" {
		t.server = telemetry.NewServer(cfg.MetricsAddr, t.Metrics, e.Logger)
		if _, err := t.server.Start(ctx); err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
	}
	return t, nil
}

// Close stops the metrics server and flushes pending spans.
func (t *Telemetry) Close(ctx context.Context) error {
	var errs []error
	if t.server != nil {
		errs = append(errs, t.server.Stop(ctx))
	}
	errs = append(errs, t.shutdown(ctx))
	return errors.Join(errs...)
}

// observer fans progress out to the metrics, the optional notifier and,
// when printer is set, the terminal.
func (e *Env) observer(label string, t *Telemetry, printer *render.Printer) clone.Observer {
	obs := []clone.Observer{t.Metrics.Observer(label)}
	if n := e.Notifier(); n != nil {
		obs = append(obs, n.Observer(label))
	}
	if printer != nil {
		obs = append(obs, printer.Observe)
	}
	return clone.Observers(obs...)
}

// Clone runs one job to completion and prints its summary.
func Clone(ctx context.Context, e *Env, client clone.Client, job clone.Job) (clone.Result, error) {
	t, err := e.StartTelemetry(ctx)
	if err != nil {
		return clone.Result{}, err
	}
	defer func() { _ = t.Close(context.WithoutCancel(ctx)) }()

	cloner, err := e.NewCloner(client)
	if err != nil {
		return clone.Result{}, err
	}

	label := string(job.Source) + "->" + string(job.Target)
	res, err := cloner.Run(ctx, job, e.observer(label, t, render.NewPrinter(e.Stdout, progressEvery)))
	if res.State.Terminal() {
		render.Result(e.Stdout, res)
	}
	return res, err
}
