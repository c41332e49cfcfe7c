package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gitclock/agent/agent/types"
)

const (
	commandRun         = "run"
	commandLogin       = "login"
	commandSetInterval = "set-interval"
	commandSyncNow     = "sync-now"
)

func main() {
	configPath := flag.String(
		"config",
		"",
		"Path to the YAML configuration file for the gitclock agent (optional)",
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [command]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nGitClock Agent\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  %-22s detect and log changes on an interval (default)\n", commandRun)
		fmt.Fprintf(os.Stderr, "  %-22s authenticate through the browser\n", commandLogin)
		fmt.Fprintf(os.Stderr, "  %-22s set the sync interval (minimum %d)\n", commandSetInterval+" <minutes>", types.MinIntervalMinutes)
		fmt.Fprintf(os.Stderr, "  %-22s run a single sync cycle and exit\n", commandSyncNow)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := types.NewConfigManager(*configPath).LoadAndValidateConfig()
	if err != nil {
		log.Fatal(types.ConfigError(types.AgentOperationReadingConfig, err))
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}

	agent, err := NewAgent(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	command := commandRun
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runCommand(ctx, agent, command, flag.Args()); err != nil {
		logger.Errorw("Command failed", "command", command, "error", err)
		os.Exit(exitCode(err))
	}
}

const (
	exitFailure          = 1
	exitNotAuthenticated = 2
	exitInvalidConfig    = 3
)

// exitCode lets scripts tell a missing login or a bad setting apart from a
// failed sync.
func exitCode(err error) int {
	switch {
	case types.IsComponent(err, types.AgentComponentAuth):
		return exitNotAuthenticated
	case types.IsComponent(err, types.AgentComponentConfig):
		return exitInvalidConfig
	default:
		return exitFailure
	}
}

func runCommand(ctx context.Context, agent *Agent, command string, args []string) error {
	switch command {
	case commandRun:
		return runAgent(ctx, agent)
	case commandLogin:
		return agent.Login(ctx)
	case commandSetInterval:
		if len(args) < 2 {
			return fmt.Errorf("usage: %s <minutes>", commandSetInterval)
		}
		return agent.SetInterval(args[1])
	case commandSyncNow:
		return agent.SyncNow(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runAgent blocks until ctx is cancelled. SIGUSR1 requests an immediate cycle.
func runAgent(ctx context.Context, agent *Agent) error {
	if err := agent.Start(ctx); err != nil {
		return err
	}

	triggerChan := make(chan os.Signal, 1)
	signal.Notify(triggerChan, syscall.SIGUSR1)
	defer signal.Stop(triggerChan)

	for {
		select {
		case <-triggerChan:
			agent.TriggerSync()
		case <-ctx.Done():
			return agent.Stop()
		}
	}
}
