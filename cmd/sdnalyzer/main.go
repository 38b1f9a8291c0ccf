package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/sdnalyzer/sdnalyzer/internal/admin"
	"github.com/sdnalyzer/sdnalyzer/internal/analyzer"
	"github.com/sdnalyzer/sdnalyzer/internal/config"
	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/logger"
	"github.com/sdnalyzer/sdnalyzer/internal/observer"
	"github.com/sdnalyzer/sdnalyzer/internal/sensors"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	setupFlag := flag.Bool("setup", false, "create the database schema and exit")
	resetFlag := flag.Bool("reset", false, "drop the database schema and exit")
	observerFlag := flag.Bool("observer", false, "run the tick scheduler")
	analyzerFlag := flag.Bool("analyzer", false, "run the admin endpoint that triggers analyzer tasks")
	singleFlag := flag.Bool("single", false, "run one tick (with --observer) instead of looping")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	component := "sdnalyzer"
	switch {
	case *observerFlag:
		component = "observer"
	case *analyzerFlag:
		component = "admin"
	}
	log := logger.New(*verboseFlag, component)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, store.Config{Logger: log, ConnectionString: cfg.ConnectionString})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	switch {
	case *setupFlag:
		log.Info("creating database schema")
		return st.Init(ctx)
	case *resetFlag:
		log.Info("dropping database schema")
		return st.Drop(ctx)
	case *observerFlag:
		return runObserver(ctx, log, cfg, st, *singleFlag)
	case *analyzerFlag:
		return runAdmin(ctx, log, cfg, st)
	default:
		return fmt.Errorf("one of --setup, --reset, --observer, or --analyzer is required")
	}
}

func runObserver(ctx context.Context, log *slog.Logger, cfg config.Config, st *store.Store, single bool) error {
	client, err := controller.New(controller.Config{BaseURL: cfg.ControllerBaseURL()})
	if err != nil {
		return fmt.Errorf("failed to create controller client: %w", err)
	}

	obs, err := observer.New(observer.Config{
		Logger:       log,
		Store:        st,
		Sensors:      sensorChain(client),
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create observer: %w", err)
	}

	log.Info("observer: starting", "pollInterval", cfg.PollInterval, "single", single)
	return obs.Run(ctx, single)
}

func runAdmin(ctx context.Context, log *slog.Logger, cfg config.Config, st *store.Store) error {
	client, err := controller.New(controller.Config{BaseURL: cfg.ControllerBaseURL()})
	if err != nil {
		return fmt.Errorf("failed to create controller client: %w", err)
	}

	obs, err := observer.New(observer.Config{
		Logger:       log,
		Store:        st,
		Sensors:      sensorChain(client),
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create observer: %w", err)
	}

	runner := analyzer.NewRunner(st, nil, log)

	srv, err := admin.New(admin.Config{
		Logger:     log,
		ListenAddr: ":" + cfg.APIPort,
		Username:   cfg.APIUsername,
		Password:   cfg.APIPassword,
		Observer:   obs,
		Runner:     runner,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin server: %w", err)
	}

	return srv.Run(ctx)
}

// sensorChain builds the seven controller sensors in the fixed
// dependency order the observer applies them in (§4.1).
func sensorChain(client *controller.Client) []sensors.Sensor {
	return []sensors.Sensor{
		sensors.NewSwitchList(client),
		sensors.NewDevices(client),
		sensors.NewSwitchFeatures(client),
		sensors.NewSwitchPort(client),
		sensors.NewLinks(client),
		sensors.NewSwitchFlow(client),
		sensors.NewDelay(client),
	}
}
