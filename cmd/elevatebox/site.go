package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/island"
	"github.com/elevatebox/elevatebox/internal/logging"
	"github.com/elevatebox/elevatebox/internal/onboarding"
	"github.com/elevatebox/elevatebox/internal/output"
	"github.com/elevatebox/elevatebox/internal/store"
)

// site is a loaded site directory with its configuration and, once opened,
// its sink and notification outputs.
type site struct {
	dir    string
	cfg    *config.Config
	wizard *onboarding.Config
	log    *zap.Logger

	sink     store.Sink
	notifier *output.Registry
}

// loadSite reads and validates the site configuration and the wizard
// definition. configPath overrides <dir>/elevatebox.yaml.
func loadSite(dir, configPath string) (*site, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cfg *config.Config
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromDir(absDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wizard, err := onboarding.LoadConfig(cfg.Onboarding.ConfigPath(absDir))
	if err != nil {
		return nil, err
	}

	return &site{dir: absDir, cfg: cfg, wizard: wizard, log: logging.GetLogger()}, nil
}

// open connects the sink and builds the notification outputs.
func (s *site) open() error {
	sink, err := store.Open(s.cfg.Sink, s.dir)
	if err != nil {
		return fmt.Errorf("failed to open %s sink: %w", s.cfg.Sink.GetType(), err)
	}
	notifier, err := output.NewRegistryFromConfig(s.cfg.Notify, s.log.Named("notify"))
	if err != nil {
		sink.Close()
		return err
	}
	s.sink = sink
	s.notifier = notifier
	return nil
}

// islands builds the island registry over the opened sink.
func (s *site) islands() (*island.Registry, error) {
	deps := island.Deps{
		Sink:       s.sink,
		Wizard:     s.wizard,
		Onboarding: s.cfg.Onboarding,
		Contact:    s.cfg.Contact,
		Logger:     s.log.Named("island"),
	}
	if s.notifier != nil && s.notifier.Len() > 0 {
		deps.Notifier = s.notifier
	}
	return island.NewDefaultRegistry(deps)
}

func (s *site) Close() error {
	var errs []error
	if s.notifier != nil {
		errs = append(errs, s.notifier.Close())
	}
	if s.sink != nil {
		errs = append(errs, s.sink.Close())
	}
	return errors.Join(errs...)
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
