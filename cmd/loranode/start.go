package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/exepirit/loratext/internal/config"
	"github.com/exepirit/loratext/internal/log"
	"github.com/exepirit/loratext/internal/radios"
	"github.com/exepirit/loratext/pkg/loratext"
	"github.com/exepirit/loratext/pkg/loratext/display"
	"github.com/exepirit/loratext/pkg/loratext/keypad"
	"github.com/exepirit/loratext/pkg/loratext/storage"
)

var startOpts struct {
	configPath string
	name       string
	radio      string
	storage    string
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run a node with a terminal display and stdin as keypad",
	Long: `Run a node. Every line typed on stdin is sent to the selected recipient.
"/next" cycles the recipient, "/to NAME" selects one and "/to *" selects everyone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runNode(ctx, cfg, os.Stdin, os.Stdout)
	},
}

func init() {
	startCmd.Flags().StringVarP(&startOpts.configPath, "config", "c", "", "Node configuration file (YAML)")
	startCmd.Flags().StringVarP(&startOpts.name, "name", "n", "", "Node name, overrides the config file")
	startCmd.Flags().StringVarP(&startOpts.radio, "radio", "r", "", "Radio URL (schemes: serial, mqtt, udp, http)")
	startCmd.Flags().StringVarP(&startOpts.storage, "storage", "s", "", "Storage database path")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if startOpts.configPath != "" {
		var err error
		if cfg, err = config.Load(startOpts.configPath); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("name") {
		cfg.Name = startOpts.name
	}
	if cmd.Flags().Changed("radio") {
		cfg.Radio = startOpts.radio
	}
	if cmd.Flags().Changed("storage") {
		cfg.Storage = startOpts.storage
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return log.New(os.Stderr, level), io.NopCloser(nil), nil
	}
	return log.OpenFile(cfg.LogFile, level)
}

func runNode(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	roster, err := db.Roster(cfg.PeerRoster)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	cfg.PeerRoster = roster

	radio, radioCloser, err := radios.Open(cfg.Radio, logger)
	if err != nil {
		return err
	}
	defer radioCloser.Close()

	screen := display.NewTerminal(out)
	events := &loratext.FanOutPublisher{}
	events.Subscribe(&display.Presenter{Display: screen})
	events.Subscribe(&storage.Recorder{Store: db, Logger: logger})

	engine, err := loratext.NewEngine(cfg.Engine(), radio,
		loratext.WithLogger(logger),
		loratext.WithPublisher(events),
	)
	if err != nil {
		return err
	}

	composer := &keypad.Composer{
		Recipients: recipients(cfg.Name, roster),
		Display:    screen,
	}
	requests := make(chan loratext.SendRequest)
	go func() {
		defer close(requests)
		if err := keypad.ReadLines(ctx, in, composer, requests); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Input closed", "error", err)
		}
	}()

	node := &loratext.Node{
		Engine:         engine,
		Radio:          radio,
		Input:          requests,
		Buzzer:         &bell{out: out},
		Sleeper:        &screenSaver{display: screen, nap: time.Second},
		Logger:         logger,
		TickInterval:   cfg.TickInterval(),
		BuzzerDuration: cfg.BuzzerDuration(),
		IdleTimeout:    cfg.IdleTimeout(),
	}
	logger.Info("Starting node", "name", cfg.Name, "radio", cfg.Radio, "peers", len(roster))
	return node.Run(ctx)
}

// recipients is everyone followed by the roster without this node.
func recipients(self string, roster []string) []string {
	out := []string{loratext.Broadcast}
	for _, name := range roster {
		if name != self && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
