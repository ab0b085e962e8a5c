package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luiz3283/HELP-PRO/configs"
	"github.com/luiz3283/HELP-PRO/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "helppro",
		Short:         "Shift log service for delivery riders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newExportCmd(), newSeedCmd())
	return root
}

// withApp loads config, builds the logger and wires the services for one command.
func withApp(ctx context.Context, fn func(a *app) error) error {
	cfg := configs.LoadConfig()
	log, err := configs.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(a *app) error {
				if err := configs.SeedAdmin(a.cfg, a.riders, a.log); err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
				go a.hub.Run(ctx)

				srv := &http.Server{Addr: ":" + a.cfg.Port, Handler: a.router()}
				errc := make(chan error, 1)
				go func() {
					a.log.Info("server running", zap.String("addr", srv.Addr))
					errc <- srv.ListenAndServe()
				}()

				select {
				case err := <-errc:
					return err
				case <-ctx.Done():
				}
				a.log.Info("shutting down")
				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var month, rider, out string
	var photos bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the spreadsheet (or photo archive) for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				var buf bytes.Buffer
				var name string
				now := a.reports.Now().In(a.reports.Zone)

				switch {
				case photos:
					entries, err := a.reports.Photos(services.Filter{Month: month, RiderID: rider})
					if err != nil {
						return err
					}
					if err := services.WriteArchive(&buf, entries); err != nil {
						return err
					}
					name = services.PhotoArchiveFileName(now)

				case rider != "":
					rd, logs, err := a.reports.RiderMonthly(rider, month)
					if err != nil {
						return err
					}
					if month == "" {
						month = now.Format("2006-01")
					}
					if err := services.WriteSpreadsheet(&buf, "Relatorio", services.BuildTabularReport(logs, a.reports.Zone)); err != nil {
						return err
					}
					name = services.MonthlyReportFileName(rd.Name, month)

				default:
					logs, err := a.reports.Export(services.Filter{Month: month})
					if err != nil {
						return err
					}
					if err := services.WriteSpreadsheet(&buf, "Relatorio", services.BuildTabularReport(logs, a.reports.Zone)); err != nil {
						return err
					}
					name = services.FleetReportFileName(now)
				}

				if out == "" {
					out = name
				}
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return err
				}
				a.log.Info("export written", zap.String("file", out), zap.Int("bytes", buf.Len()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM")
	cmd.Flags().StringVar(&rider, "rider", "", "rider id; all riders when empty")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: standard report name)")
	cmd.Flags().BoolVar(&photos, "photos", false, "write the photo archive instead of the spreadsheet")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account from ADMIN_USERNAME / ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return configs.SeedAdmin(a.cfg, a.riders, a.log)
			})
		},
	}
}
