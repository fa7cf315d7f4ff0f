package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DebounceInterval coalesces editor save bursts into one reload.
const DebounceInterval = 150 * time.Millisecond

// Watch reloads path whenever it changes and passes each new snapshot to fn.
// It watches the directory so atomic-rename saves are seen. fn runs on the
// debounce goroutine. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log zerolog.Logger, fn func(Snapshot)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve settings path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}

	log = log.With().Str("component", "settings").Str("path", abs).Logger()
	debounced := debounce.New(DebounceInterval)
	reload := func() {
		s, err := Load(abs)
		if err != nil {
			log.Warn().Err(err).Msg("settings reload failed, keeping previous")
			return
		}
		log.Info().Str("type", s.Type).Str("quality", s.Quality).Msg("settings reloaded")
		fn(s)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounced(reload)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
