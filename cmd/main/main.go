package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/admin/internal/config"
	"storefront/admin/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	flags := pflag.NewFlagSet(cmd.name, pflag.ExitOnError)
	globalFlags(flags)
	if cmd.flags != nil {
		cmd.flags(flags)
	}
	if err := flags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// Load configuration using viper
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	log.Debug("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	err = cmd.run(ctx, app.Service, flags)
	app.Close()
	if err != nil {
		log.Errorf("❌ %s failed: %v", cmd.name, err)
		os.Exit(1)
	}
}

func globalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a config file (default ./config.yaml)")
	flags.String("backend", "", "storefront API base URL")
	flags.String("token", "", "bearer token for the storefront API")
	flags.Int("timeout", 0, "per request timeout in seconds")
	flags.Int("page-size", 0, "rows per page")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text or json)")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: storeadmin <command> [flags] [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", name+" ", commands[name].usage)
	}
}
