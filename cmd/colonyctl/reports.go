package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"mousecolony/internal/adapters/reports"
	"mousecolony/internal/colony"
	"mousecolony/internal/infra/audit"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:       "export <kind>",
		Short:     "Render a report as CSV and archive it in blob storage",
		Long:      "Kinds: census-by-genotype, needs, litters, summary. With --list, prints the archived reports of the kind instead.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := reports.ParseKind(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				out := cmd.OutOrStdout()
				if list {
					artifacts, err := a.exporter.List(cmd.Context(), kind)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "KEY\tSIZE\tCREATED")
					for _, art := range artifacts {
						fmt.Fprintf(w, "%s\t%d\t%s\n", art.Key, art.SizeBytes, art.CreatedAt.Format(time.RFC3339))
					}
					return w.Flush()
				}
				art, err := a.exporter.Export(cmd.Context(), kind, a.today)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Archived %s (%d rows) at %s\n", art.Kind, art.Rows, art.Key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list archived reports of the kind")
	return cmd
}

func kindNames() []string {
	kinds := reports.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func newDigestCmd(opts *rootOptions) *cobra.Command {
	var (
		schedule    bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Archive the needs digest now or on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				d, err := newDigester(a)
				if err != nil {
					return err
				}
				if !schedule {
					return d.run(cmd.Context(), cmd.OutOrStdout(), a.today)
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if metricsAddr != "" {
					if a.registry == nil {
						return errors.New("--metrics-addr needs metrics.enabled in the config")
					}
					srv := &http.Server{
						Addr:              metricsAddr,
						Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
						ReadHeaderTimeout: 5 * time.Second,
					}
					go func() {
						if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							a.log.Error("metrics server stopped", "addr", metricsAddr, "error", err)
						}
					}()
					defer func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						_ = srv.Shutdown(shutdownCtx)
					}()
				}
				return d.schedule(ctx, cmd.OutOrStdout(), a.cfg.Digest.Schedule)
			})
		},
	}
	cmd.Flags().BoolVar(&schedule, "schedule", false, "keep running and archive on digest.schedule")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while scheduled")
	return cmd
}

// digester archives the needs report, optionally for a single proprietor.
type digester struct {
	app      *app
	exporter *reports.Exporter
}

func newDigester(a *app) (*digester, error) {
	var filter colony.CensusFilter
	if name := a.cfg.Digest.Proprietor; name != "" {
		p, err := a.svc.FindPersonByName(context.Background(), name)
		if err != nil {
			return nil, fmt.Errorf("digest proprietor: %w", err)
		}
		filter.ProprietorID = p.ID
	}
	exp := reports.NewExporter(a.svc, a.blobs, reports.WithLogger(a.log), reports.WithFilter(filter))
	return &digester{app: a, exporter: exp}, nil
}

func (d *digester) run(ctx context.Context, out io.Writer, today time.Time) error {
	art, err := d.exporter.Export(ctx, reports.KindNeeds, today)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Needs digest for %s archived at %s (%d needs)\n", today.Format(dayLayout), art.Key, art.Rows)
	return nil
}

// schedule runs the digest on expr until ctx is done.
func (d *digester) schedule(ctx context.Context, out io.Writer, expr string) error {
	c := cron.New()
	if _, err := c.AddFunc(expr, func() {
		if err := d.run(ctx, out, d.app.svc.Today()); err != nil {
			d.app.log.Error("scheduled digest failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("digest schedule %q: %w", expr, err)
	}
	d.app.log.Info("digest scheduler started", "schedule", expr)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	d.app.log.Info("digest scheduler stopped")
	return nil
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		cage      string
		operation string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded colony operations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if a.audit == nil {
					return errors.New("audit trail is disabled; set audit.enabled in the config")
				}
				filter := audit.Filter{Operation: operation, Limit: limit}
				if cage != "" {
					c, err := a.svc.FindCageByName(cmd.Context(), cage)
					if err != nil {
						return err
					}
					filter.EntityID = c.ID
				}
				entries, err := a.audit.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tOPERATION\tENTITY\tSTATUS\tERROR")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Operation, e.Entity, e.EntityID, e.Status, e.Error)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&cage, "cage", "", "only operations on this cage or its litter")
	cmd.Flags().StringVar(&operation, "operation", "", "only this operation, e.g. wean")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	return cmd
}
