package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/namepick/internal/config"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"namepick.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct{} `cmd:"" help:"Create the data directory with sample roster files and default state"`

	Pick struct {
		Gender string `short:"g" help:"Gender filter: unknown, male or female" default:"unknown" enum:"unknown,male,female"`
		Count  int    `short:"n" help:"Number of names to draw" default:"1"`
		Keep   bool   `short:"k" help:"Keep picked names available (repeat mode)"`
	} `cmd:"" help:"Draw one or more names from the pool"`

	Reset struct {
		Gender string `short:"g" help:"Reset only one gender's availability" default:"unknown" enum:"unknown,male,female"`
	} `cmd:"" help:"Restore availability and clear the no-repeat window"`

	Stats struct{} `cmd:"" help:"Show pool counts per gender filter"`

	History struct {
		Limit   int    `short:"n" help:"Number of events to show" default:"20"`
		Session string `short:"s" help:"Show one session's picks in order"`
	} `cmd:"" help:"Show recent pick history"`

	Repair struct {
		Mode string `short:"m" help:"add (grow roster) or remove (shrink subset)" default:"add" enum:"add,remove"`
	} `cmd:"" help:"Repair female-subset entries missing from the roster"`

	Daemon struct{} `cmd:"" help:"Run the daemon: file watching, deferred saves, metrics and backups"`
}

func main() {
	// local overrides for development; absence is fine
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "init":
		err = runInit(cfg)
	case "pick":
		err = runPick(cfg, CLI.Pick.Gender, CLI.Pick.Count, CLI.Pick.Keep)
	case "reset":
		err = runReset(cfg, CLI.Reset.Gender)
	case "stats":
		err = runStats(cfg)
	case "history":
		err = runHistory(cfg, CLI.History.Limit, CLI.History.Session)
	case "repair":
		err = runRepair(cfg, CLI.Repair.Mode)
	case "daemon":
		err = runDaemon(cfg)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}

	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
