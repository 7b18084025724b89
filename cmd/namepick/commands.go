package main

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/namepick/internal/config"
	"git.home.luguber.info/inful/namepick/internal/history"
	"git.home.luguber.info/inful/namepick/internal/picker"
	"git.home.luguber.info/inful/namepick/internal/roster"
	"git.home.luguber.info/inful/namepick/internal/selection"
	"git.home.luguber.info/inful/namepick/internal/state"
)

func rosterFiles(cfg *config.Config) roster.Files {
	return roster.Files{
		RosterPath: cfg.Roster.File,
		FemalePath: cfg.Roster.FemaleFile,
		BackupDir:  cfg.BackupDir(),
	}
}

// newService builds the picker service plus its history store for the
// one-shot commands. The caller must Close the history store.
func newService(cfg *config.Config) (*picker.Service, *history.Store, error) {
	store := state.NewStore(cfg.StatePath())
	if err := store.Init(); err != nil {
		return nil, nil, err
	}

	hist, err := history.NewStore(cfg.HistoryPath())
	if err != nil {
		return nil, nil, err
	}

	svc, err := picker.New(rosterFiles(cfg), store, picker.Options{History: hist})
	if err != nil {
		hist.Close()
		return nil, nil, err
	}
	return svc, hist, nil
}

func runInit(cfg *config.Config) error {
	if err := roster.Scaffold(rosterFiles(cfg)); err != nil {
		return err
	}

	store := state.NewStore(cfg.StatePath())
	if err := store.Init(); err != nil {
		return err
	}

	fmt.Printf("Initialized data directory %s\n", cfg.DataDir)
	fmt.Printf("Edit %s (one name per line) and %s (female subset) to set up your roster.\n",
		cfg.Roster.File, cfg.Roster.FemaleFile)
	return nil
}

func runPick(cfg *config.Config, gender string, count int, keep bool) error {
	filter, err := roster.ParseGender(gender)
	if err != nil {
		return err
	}

	svc, hist, err := newService(cfg)
	if err != nil {
		return err
	}
	defer hist.Close()

	svc.SetGenderFilter(filter)
	svc.SetPickAgain(keep)

	ctx := context.Background()
	for i := 0; i < count; i++ {
		res, err := svc.Pick(ctx)
		if err != nil {
			if selection.IsNoCandidates(err) {
				fmt.Println("No candidates left; run reset to start over.")
				break
			}
			return err
		}
		fmt.Println(res.DisplayName)
	}

	return svc.Persist()
}

func runReset(cfg *config.Config, gender string) error {
	filter, err := roster.ParseGender(gender)
	if err != nil {
		return err
	}

	svc, hist, err := newService(cfg)
	if err != nil {
		return err
	}
	defer hist.Close()

	svc.Reset(filter)
	if err := svc.Persist(); err != nil {
		return err
	}

	total, available, _ := svc.Stats(filter)
	fmt.Printf("Reset %s pool: %d of %d available\n", filter, available, total)
	return nil
}

func runStats(cfg *config.Config) error {
	svc, hist, err := newService(cfg)
	if err != nil {
		return err
	}
	defer hist.Close()

	for _, filter := range []roster.Gender{roster.Unknown, roster.Male, roster.Female} {
		total, available, picked := svc.Stats(filter)
		label := string(filter)
		if filter == roster.Unknown {
			label = "all"
		}
		fmt.Printf("%-8s total=%d available=%d picked=%d\n", label, total, available, picked)
	}
	return nil
}

func runHistory(cfg *config.Config, limit int, session string) error {
	hist, err := history.NewStore(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer hist.Close()

	ctx := context.Background()
	var events []history.PickEvent
	if session != "" {
		events, err = hist.BySession(ctx, session)
	} else {
		events, err = hist.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("No pick history yet.")
		return nil
	}
	for _, e := range events {
		name := e.DisplayName
		if e.Outcome == history.OutcomeExhausted {
			name = "(exhausted)"
		}
		fmt.Printf("%s  %-20s filter=%-8s removed=%-5t session=%s\n",
			e.PickedAt.Format("2006-01-02 15:04:05"), name, e.GenderFilter, e.Removed, e.SessionID)
	}
	return nil
}

func runRepair(cfg *config.Config, mode string) error {
	var m roster.RepairMode
	switch mode {
	case "add":
		m = roster.RepairAddToRoster
	case "remove":
		m = roster.RepairRemoveFromSubset
	default:
		return fmt.Errorf("unknown repair mode %q", mode)
	}

	n, err := roster.Repair(rosterFiles(cfg), m)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("Subset already consistent, nothing to repair.")
	} else {
		fmt.Printf("Repaired %d entries (%s)\n", n, mode)
		slog.Info("Roster repair complete", "mode", mode, "entries", n)
	}
	return nil
}
