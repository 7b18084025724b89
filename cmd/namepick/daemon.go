package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/namepick/internal/backup"
	"git.home.luguber.info/inful/namepick/internal/config"
	"git.home.luguber.info/inful/namepick/internal/history"
	"git.home.luguber.info/inful/namepick/internal/logfields"
	"git.home.luguber.info/inful/namepick/internal/metrics"
	"git.home.luguber.info/inful/namepick/internal/picker"
	"git.home.luguber.info/inful/namepick/internal/retry"
	"git.home.luguber.info/inful/namepick/internal/save"
	"git.home.luguber.info/inful/namepick/internal/speech"
	"git.home.luguber.info/inful/namepick/internal/state"
	"git.home.luguber.info/inful/namepick/internal/watch"
)

// runDaemon wires the long-running mode: deferred saves through the
// coalescer, roster file watching, optional metrics endpoint and scheduled
// backups. Runs until SIGINT or SIGTERM.
func runDaemon(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := state.NewStore(cfg.StatePath())
	if err := store.Init(); err != nil {
		return err
	}

	hist, err := history.NewStore(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer hist.Close()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if cfg.Metrics.Enabled {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	var announcer *speech.Announcer
	if cfg.Speech.Binary != "" {
		m := store.Load()
		announcer, err = speech.NewAnnouncer(speech.CommandSynthesizer{
			Binary: cfg.Speech.Binary,
			Rate:   state.Int(m, state.KeySpeakSpeed),
		})
		if err != nil {
			return err
		}
	}

	svc, err := picker.New(rosterFiles(cfg), store, picker.Options{
		History:   hist,
		Recorder:  recorder,
		Announcer: announcer,
	})
	if err != nil {
		return err
	}

	coalescer, err := save.NewCoalescer(store, svc, save.CoalescerConfig{
		QuietWindow: cfg.QuietWindow(),
		MinInterval: cfg.MinInterval(),
		RetryPolicy: retry.NewPolicy(retry.BackoffFixed, cfg.RetryDelay(), 30*time.Second, 0),
		Recorder:    recorder,
	})
	if err != nil {
		return err
	}
	svc.SetSaver(coalescer)

	// the coalescer outlives the signal context so the shutdown flush below
	// can still drain it
	coalescerCtx, stopCoalescer := context.WithCancel(context.Background())
	defer stopCoalescer()
	go func() {
		if err := coalescer.Run(coalescerCtx); err != nil {
			slog.Error("Save coalescer stopped", "error", err)
		}
	}()
	<-coalescer.Ready()

	watcher, err := watch.NewRosterWatcher(svc.Reload, cfg.Roster.File, cfg.Roster.FemaleFile)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if cfg.Backup.Enabled {
		backups, err := backup.NewScheduler(cfg.BackupDir(),
			cfg.StatePath(), cfg.HistoryPath(), cfg.Roster.File, cfg.Roster.FemaleFile)
		if err != nil {
			return err
		}
		if err := backups.Start(ctx, cfg.BackupInterval()); err != nil {
			return err
		}
		defer func() {
			if err := backups.Stop(); err != nil {
				slog.Error("Backup scheduler shutdown failed", "error", err)
			}
		}()
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(registry))
		server := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}

		go func() {
			slog.Info("Metrics endpoint listening", "addr", cfg.Metrics.Listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	slog.Info("Daemon running", logfields.Session(svc.SessionID()), "data_dir", cfg.DataDir)
	<-ctx.Done()
	slog.Info("Shutting down")

	if announcer != nil {
		announcer.Wait()
	}

	// drain whatever is still pending before exit, then stop the loop
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := coalescer.FlushNow(flushCtx); err != nil {
		slog.Error("Final state flush failed", "error", err)
		return err
	}
	stopCoalescer()

	return nil
}
