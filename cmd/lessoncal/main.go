package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"lessoncal/internal/config"
	"lessoncal/internal/ledger"
	appLog "lessoncal/internal/log"
	"lessoncal/internal/report"
	"lessoncal/internal/web"
)

var (
	flagConfigPath string
	flagListen     string
)

var rootCmd = &cobra.Command{
	Use:   "lessoncal",
	Short: "Music-school calendar billing reports",
	Long:  "Turns lesson and rehearsal calendar bookings into billing and attendance reports.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report API server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServe()
	},
}

var reportCmd = &cobra.Command{
	Use:       "report {school|rehearsals}",
	Short:     "Print a report for the given months as JSON",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"school", "rehearsals"},
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		months, _ := cmd.Flags().GetIntSlice("month")
		return runReport(args[0], year, months)
	},
}

var dueCmd = &cobra.Command{
	Use:   "due [date]",
	Short: "Print the needs-payment view for a day (default today) as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		date := ""
		if len(args) == 1 {
			date = args[0]
		}
		return runDue(date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "/etc/lessoncal/config.yaml", "Path to config file")
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config if set)")

	now := time.Now()
	reportCmd.Flags().Int("year", now.Year(), "Report year")
	reportCmd.Flags().IntSlice("month", []int{int(now.Month())}, "Report months (1-12), repeatable")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(dueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe() error {
	conf, err := config.Load(flagConfigPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flagConfigPath)
		return err
	}
	if flagListen != "" {
		conf.Listen = flagListen
	}

	appLog.Info("lessoncal starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"calendar_count", len(conf.Calendars),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv := web.NewServer(conf, flagConfigPath)

	// Refresh the current year's aggregate on a schedule so cached reads
	// stay inside the 24h freshness window.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		refreshCtx, done := context.WithTimeout(ctx, 10*time.Minute)
		defer done()
		year := time.Now().Year()
		if _, errs := srv.ComputeYearly(refreshCtx, year); len(errs) > 0 {
			appLog.Error("scheduled aggregate refresh was partial", errs[0], "year", year, "error_count", len(errs))
		}
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		return err
	}
	c.Start()
	defer c.Stop()

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server failed", err)
		return err
	}
	appLog.Info("lessoncal exiting")
	return nil
}

func runReport(kind string, year int, months []int) error {
	srv, err := oneShotServer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sessions, fetchErrs := srv.FetchSessions(ctx, year, months)
	for _, e := range fetchErrs {
		appLog.Error("calendar source failed, report is partial", e)
	}

	var out any
	switch kind {
	case "school":
		out = report.AggregateLessons(sessions, srv.RehearsalMarker())
	case "rehearsals":
		out = report.AggregateRehearsals(sessions, srv.RehearsalConfig())
	}
	return printJSON(out)
}

func runDue(date string) error {
	srv, err := oneShotServer()
	if err != nil {
		return err
	}

	refDate := time.Now().In(srv.Location())
	if date != "" {
		refDate, err = time.ParseInLocation("2006-01-02", date, srv.Location())
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	months := make([]int, 12)
	for i := range months {
		months[i] = i + 1
	}
	sessions, fetchErrs := srv.FetchSessions(ctx, refDate.Year(), months)
	for _, e := range fetchErrs {
		appLog.Error("calendar source failed, report is partial", e)
	}

	teachers := report.AggregateLessons(sessions, srv.RehearsalMarker())
	return printJSON(ledger.BuildDueReport(teachers, refDate.Year(), refDate))
}

func oneShotServer() (*web.Server, error) {
	conf, err := config.Load(flagConfigPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flagConfigPath)
		return nil, err
	}
	return web.NewServer(conf, flagConfigPath), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
