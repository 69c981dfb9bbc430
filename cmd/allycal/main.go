package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"allycal/internal/config"
	appLog "allycal/internal/log"
	"allycal/internal/model"
	"allycal/internal/schedule"
	"allycal/internal/store"
	"allycal/internal/template"
	"allycal/internal/view"
	"allycal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	appLog.Info("allycal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"database_path", conf.DatabasePath,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"alliance_id", conf.AllianceID,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	db, err := store.Open(conf.DatabasePath)
	if err != nil {
		appLog.Error("failed to open database", err, "path", conf.DatabasePath)
		os.Exit(1)
	}
	defer db.Close()

	rules := store.NewRuleStore(db)
	exceptions := store.NewExceptionStore(db)
	templates := store.NewTemplateStore(db)
	runner := template.NewRunner(templates, rules)

	scope := model.Scope{AllianceID: conf.AllianceID, IncludePersonal: true}
	window := view.New(rules, exceptions, scope)

	refresh := func(ctx context.Context) error {
		today := schedule.DateOf(time.Now().UTC())
		start := today.AddDate(0, 0, -conf.BackfillDays)
		end := today.AddDate(0, 0, conf.HorizonDays)
		_, _, err := window.Refresh(ctx, start, end)
		return err
	}

	if flags.once {
		if err := runOnce(ctx, window, refresh); err != nil {
			appLog.Error("one-shot window build failed", err)
			os.Exit(1)
		}
		return
	}

	if err := refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	// Periodic refresh keeps the snapshot converging on "today" even when no
	// writes arrive.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		tickCtx, tickCancel := context.WithTimeout(ctx, time.Minute)
		defer tickCancel()
		if err := refresh(tickCtx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	server := web.NewServer(conf, rules, exceptions, templates, runner, window)
	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLog.Error("http shutdown failed", err)
		}
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("http server failed", err)
		os.Exit(1)
	}

	appLog.Info("allycal exiting")
}

// runOnce builds a single window and writes it to stdout as JSON.
func runOnce(ctx context.Context, window *view.View, refresh func(context.Context) error) error {
	if err := refresh(ctx); err != nil {
		return err
	}
	snap := window.Current()
	if snap == nil {
		return errors.New("no snapshot built")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/allycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Build one occurrence window, print it as JSON, and exit")

	flag.Parse()

	return cfg
}
