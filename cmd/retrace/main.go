// Package main provides the retrace engine CLI: one-shot mining runs over a
// user's browsing activity and a daemon mode that re-runs on a cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/retrace/pkg/config"
	"github.com/entrhq/retrace/pkg/insight"
	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
	"github.com/robfig/cron/v3"
)

const (
	version = "0.1.0"

	// defaultSchedule runs daemon-mode mining every 30 minutes.
	defaultSchedule = "*/30 * * * *"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigFile  string
	UserID      string
	Daemon      bool
	Schedule    string
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("retrace v%s\n", version)
		return
	}
	if cli.UserID == "" {
		fmt.Fprintln(os.Stderr, "error: -user is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("run failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.UserID, "user", "", "User id to mine insights for")
	flag.BoolVar(&cli.Daemon, "daemon", false, "Keep running and mine on a cron schedule")
	flag.StringVar(&cli.Schedule, "schedule", defaultSchedule, "Cron schedule for daemon mode")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "retrace - browsing insight mining engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: retrace [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # One mining run\n")
		fmt.Fprintf(os.Stderr, "  retrace -user alice\n\n")
		fmt.Fprintf(os.Stderr, "  # Recurring runs every 15 minutes\n")
		fmt.Fprintf(os.Stderr, "  retrace -user alice -daemon -schedule \"*/15 * * * *\"\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger("engine")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	client, err := oracle.NewClient(cfg.Oracle.APIKey,
		oracle.WithModel(cfg.Oracle.Model),
		oracle.WithBaseURL(cfg.Oracle.BaseURL),
		oracle.WithMaxPromptTokens(cfg.Oracle.MaxPromptTokens),
	)
	if err != nil {
		return fmt.Errorf("create oracle client: %w", err)
	}

	manager := insight.NewManager(cli.UserID, cfg, client, logger)

	if !cli.Daemon {
		insights, err := manager.Run(ctx)
		if err != nil {
			return err
		}
		printSummary(insights)
		return nil
	}
	return runDaemon(ctx, cli, logger, manager)
}

// newMiningCron builds the daemon scheduler. Cron runs each trigger on its
// own goroutine, so a mining run slower than the schedule would otherwise
// overlap itself; the chain skips a tick while the previous run is still
// going.
func newMiningCron() *cron.Cron {
	return cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
}

// runDaemon mines once immediately, then on the cron schedule until the
// context is cancelled.
func runDaemon(ctx context.Context, cli *CLIConfig, logger *logging.Logger, manager *insight.Manager) error {
	mine := func() {
		insights, err := manager.Run(ctx)
		if err != nil {
			logger.Errorf("scheduled run failed: %v", err)
			return
		}
		logger.Infof("scheduled run produced %d insights", len(insights))
	}

	mine()

	c := newMiningCron()
	if _, err := c.AddFunc(cli.Schedule, mine); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cli.Schedule, err)
	}
	c.Start()
	logger.Infof("daemon started for user %s with schedule %q", cli.UserID, cli.Schedule)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

func printSummary(insights []types.ProactiveInsight) {
	if len(insights) == 0 {
		fmt.Println("No insights yet.")
		return
	}
	fmt.Printf("%d insights:\n", len(insights))
	for _, ins := range insights {
		fmt.Printf("  [%s] %-10s %-12s %s\n", ins.Status, ins.Type, ins.ActionType, ins.Title)
	}
}
