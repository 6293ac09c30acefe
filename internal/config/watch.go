package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// HolidaysWatcher polls the holidays file and hands every valid revision to onUpdate.
// A revision that fails to load is logged and skipped; the last good one stays in effect.
type HolidaysWatcher struct {
	path     string
	interval time.Duration
	logger   zerolog.Logger
	onUpdate func(*HolidaysConfig)

	lastMod time.Time
}

func NewHolidaysWatcher(path string, interval time.Duration, logger zerolog.Logger, onUpdate func(*HolidaysConfig)) *HolidaysWatcher {
	if path == "" {
		path = "configs/holidays.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if onUpdate == nil {
		onUpdate = func(*HolidaysConfig) {}
	}
	return &HolidaysWatcher{
		path:     path,
		interval: interval,
		logger:   logger.With().Str("component", "holidays").Str("path", path).Logger(),
		onUpdate: onUpdate,
	}
}

// Start loads the file once and then polls it until ctx is done.
// The initial load must succeed.
func (w *HolidaysWatcher) Start(ctx context.Context) error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}
	cfg, err := LoadHolidaysConfig(w.path)
	if err != nil {
		return err
	}
	w.lastMod = info.ModTime()
	w.logger.Info().Int("holidays", len(cfg.Holidays)).Msg("holidays loaded")
	w.onUpdate(cfg)

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()
	return nil
}

func (w *HolidaysWatcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil || !info.ModTime().After(w.lastMod) {
		return
	}
	// Remember the revision even if it is broken so it is reported once.
	w.lastMod = info.ModTime()

	cfg, err := LoadHolidaysConfig(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Msg("holidays reload rejected, keeping previous calendar")
		return
	}
	w.logger.Info().Int("holidays", len(cfg.Holidays)).Msg("holidays reloaded")
	w.onUpdate(cfg)
}
