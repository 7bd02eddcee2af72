package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/basket/internal/auth"
	"github.com/idilsaglam/basket/internal/config"
	"github.com/idilsaglam/basket/internal/history"
	"github.com/idilsaglam/basket/internal/logger"
	"github.com/idilsaglam/basket/internal/model"
	"github.com/idilsaglam/basket/internal/observer"
	"github.com/idilsaglam/basket/internal/seed"
	"github.com/idilsaglam/basket/internal/store"
	"github.com/idilsaglam/basket/internal/store/jsonstore"
	"github.com/idilsaglam/basket/internal/ui"
)

const fetchTimeout = 10 * time.Second

// session is one command's worth of wiring: config, logger, and a store
// seeded from the data file.
type session struct {
	cfg     config.Config
	log     logger.Logger
	closeFn func()
	st      *store.Store
	initial model.State
}

// loadConfig reads the config file and applies root flag overrides.
func loadConfig(opt Options) (config.Config, error) {
	cfg, err := config.Load(opt.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opt.DataFile != "" {
		cfg.DataFile = opt.DataFile
	}
	if opt.Theme != "" {
		cfg.Theme = opt.Theme
	}
	if opt.SeedURL != "" {
		cfg.SeedURL = opt.SeedURL
	}
	ui.SetTheme(cfg.Theme)
	return cfg, nil
}

func openSession(opt Options, interactive bool) (*session, error) {
	cfg, err := loadConfig(opt)
	if err != nil {
		return nil, err
	}
	log, closeFn, err := newLogger(cfg, interactive)
	if err != nil {
		return nil, err
	}
	if want := strings.ToLower(strings.TrimSpace(cfg.Theme)); want != "" && want != ui.Current().Name {
		log.Warn("unknown theme", "theme", cfg.Theme, "using", ui.Current().Name, "known", strings.Join(ui.Themes, ","))
	}

	infos := model.DefaultCategories
	notifier := observer.NewNotifier(log)
	st := store.New(model.EmptyState(infos),
		store.WithHistory(history.New(model.State.Clone)),
		store.WithNotifier(notifier),
		store.WithLogger(log),
		store.WithCategories(infos),
	)
	s := &session{cfg: cfg, log: log, closeFn: closeFn, st: st}

	if err := s.seed(interactive); err != nil {
		s.close()
		return nil, err
	}
	s.initial = st.Snapshot()
	return s, nil
}

// seed fills the store from the data file, else the seed URL, else (for the
// interactive list) a random sample.
func (s *session) seed(interactive bool) error {
	records, ok, err := jsonstore.Load(s.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.cfg.DataFile, err)
	}
	switch {
	case ok:
		s.log.Debug("seeded from file", "path", s.cfg.DataFile, "records", len(records))
	case s.cfg.SeedURL != "":
		records, err = fetchRecords(s.log, s.cfg.SeedURL)
		if err != nil {
			return err
		}
		s.log.Info("seeded from url", "url", s.cfg.SeedURL, "records", len(records))
	case interactive:
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		records = model.RandomSample(s.cfg.SampleSize, rng)
		s.log.Debug("seeded from samples", "records", len(records))
	}
	s.st.Seed(model.FromRecords(model.EmptyState(model.DefaultCategories), records))
	return nil
}

func fetchRecords(log logger.Logger, rawURL string) ([]model.Record, error) {
	log = log.With("url", rawURL)
	client, err := seed.NewClient(rawURL, seed.WithToken(auth.BearerFor(rawURL)))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	records, err := client.Fetch(ctx)
	if err != nil {
		log.InternalError("seed fetch failed", err)
		return nil, err
	}
	log.Debug("seed fetched", "records", len(records))
	return records, nil
}

// changed reports whether the list differs from what was loaded.
func (s *session) changed() bool {
	return !s.initial.Equal(s.st.Snapshot())
}

func (s *session) save() error {
	if err := jsonstore.Save(s.cfg.DataFile, s.st.Snapshot().Records()); err != nil {
		return fmt.Errorf("save %s: %w", s.cfg.DataFile, err)
	}
	s.log.Debug("saved", "path", s.cfg.DataFile)
	return nil
}

func (s *session) close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// newLogger writes to the configured log file when there is one. Otherwise
// the interactive list logs nothing (it owns the terminal) and plain
// commands log warnings to stderr.
func newLogger(cfg config.Config, interactive bool) (logger.Logger, func(), error) {
	level := logger.ParseLevel(cfg.LogLevel)
	format := logger.ParseFormat(cfg.LogFormat)

	if cfg.LogFile == "" {
		if interactive {
			return logger.New(io.Discard, level, format), func() {}, nil
		}
		return logger.New(ui.Err, logger.ParseLevel("warn"), format), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(f, level, format), func() { _ = f.Close() }, nil
}
