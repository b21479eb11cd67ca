package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mousecolony/internal/adapters/reports"
	"mousecolony/internal/blob"
	"mousecolony/internal/colony"
	"mousecolony/internal/config"
	"mousecolony/internal/core"
	"mousecolony/internal/infra/audit"
	"mousecolony/internal/platform/logging"
	"mousecolony/pkg/domain"
)

const dayLayout = "2006-01-02"

type rootOptions struct {
	configPath string
	envFiles   []string
	today      string
	trace      bool
}

// app holds everything a command needs. Call close when done.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	store    core.PersistentStore
	svc      *core.Service
	blobs    blob.Store
	audit    *audit.Store
	registry *prometheus.Registry
	exporter *reports.Exporter
	today    time.Time
}

func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath, opts.envFiles...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	if err := a.wire(cmd.Context(), cmd.ErrOrStderr(), opts); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, stderr io.Writer, opts *rootOptions) error {
	store, err := core.OpenPersistentStore(a.cfg.Storage.Core(), core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open %s store: %w", a.cfg.Storage.Driver, err)
	}
	a.store = store

	svcOpts := []core.ServiceOption{
		core.WithLogger(a.log),
		core.WithNeedsPolicy(a.cfg.Needs),
	}
	if a.cfg.Audit.Enabled {
		a.audit, err = audit.Open(audit.Config{Dialect: a.cfg.Audit.Dialect, DSN: a.cfg.Audit.DSN}, a.log)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, core.WithAuditRecorder(a.audit))
	}
	if a.cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		recorder, err := core.NewPrometheusMetricsRecorder(a.registry, a.cfg.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		svcOpts = append(svcOpts, core.WithMetricsRecorder(recorder))
	}
	if opts.trace {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(stderr)))
	}
	a.svc = core.NewService(store, svcOpts...)

	a.today = a.svc.Today()
	if opts.today != "" {
		day, err := time.Parse(dayLayout, opts.today)
		if err != nil {
			return fmt.Errorf("--today: %w", err)
		}
		a.today = colony.Day(day)
	}

	a.blobs, err = blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return fmt.Errorf("open %s blob store: %w", a.cfg.Blob.Driver, err)
	}
	a.exporter = reports.NewExporter(a.svc, a.blobs, reports.WithLogger(a.log))
	return nil
}

func (a *app) close() {
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("close store", "error", err)
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.log.Warn("close audit store", "error", err)
		}
	}
	a.log.Sync()
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// censusFlags are shared by the commands that list cages.
type censusFlags struct {
	proprietor         string
	location           string
	includeResponsible bool
	order              string
}

func (f *censusFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.proprietor, "proprietor", "p", "", "only cages owned by this person")
	cmd.Flags().StringVarP(&f.location, "location", "l", "", "only cages in this room")
	cmd.Flags().BoolVar(&f.includeResponsible, "include-responsible", false, "also list cages holding mice the proprietor is responsible for")
	cmd.Flags().StringVar(&f.order, "order", string(colony.OrderByName), "cage order: name or rack_spot")
}

func (f *censusFlags) filter(ctx context.Context, a *app) (colony.CensusFilter, error) {
	filter := colony.CensusFilter{
		IncludeByUser: f.includeResponsible,
		Location:      domain.Location(f.location),
		OrderBy:       colony.CensusOrder(f.order),
	}
	switch filter.OrderBy {
	case colony.OrderByName, colony.OrderByRackSpot:
	default:
		return filter, fmt.Errorf("--order %q is not one of name, rack_spot", f.order)
	}
	if f.includeResponsible && f.proprietor == "" {
		return filter, errors.New("--include-responsible needs --proprietor")
	}
	if f.proprietor != "" {
		person, err := a.svc.FindPersonByName(ctx, f.proprietor)
		if err != nil {
			return filter, err
		}
		filter.ProprietorID = person.ID
	}
	return filter, nil
}
