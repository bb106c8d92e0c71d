// Package watcher detects deletion of the session database file and
// triggers schema recreation so the service survives a wiped data dir.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DBWatcher monitors the sqlite database file for deletion and invokes
// onDelete when it disappears. The parent directory is what gets watched,
// since fsnotify cannot watch a path that no longer exists.
type DBWatcher struct {
	dbPath   string
	dataDir  string
	onDelete func()
	fsw      *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	debounce time.Duration
}

// New creates a DBWatcher for the database at dbPath.
func New(dbPath string, onDelete func()) (*DBWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &DBWatcher{
		dbPath:   filepath.Clean(dbPath),
		dataDir:  filepath.Dir(dbPath),
		onDelete: onDelete,
		fsw:      fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching. Safe to call more than once.
func (w *DBWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watchDataDir(); err != nil {
		// The data dir may not exist yet; the loop re-arms on creation.
		log.Warn().Err(err).Str("dir", w.dataDir).Msg("Failed to add initial watch")
	}

	go w.loop()
	return nil
}

// Stop stops the watcher and releases the fsnotify handle.
func (w *DBWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	w.cancel()
	return w.fsw.Close()
}

func (w *DBWatcher) watchDataDir() error {
	if _, err := os.Stat(w.dataDir); err != nil {
		return err
	}
	return w.fsw.Add(w.dataDir)
}

func (w *DBWatcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			path := filepath.Clean(event.Name)

			switch {
			case event.Op&fsnotify.Remove != 0 && (path == w.dbPath || path == w.dataDir):
				log.Info().Str("path", path).Msg("Database path deleted")
				pending = true
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounce, w.fireDeletion)

			case event.Op&fsnotify.Create != 0 && path == w.dataDir:
				log.Info().Str("dir", w.dataDir).Msg("Data dir recreated, re-arming watch")
				_ = w.watchDataDir()

			case event.Op&fsnotify.Create != 0 && pending && path == w.dbPath:
				// The file came back before the debounce fired, so the
				// recreation callback is unnecessary.
				pending = false
				if timer != nil {
					timer.Stop()
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *DBWatcher) fireDeletion() {
	log.Info().Str("path", w.dbPath).Msg("Database deleted, triggering recreation")

	if w.onDelete != nil {
		w.onDelete()
	}

	// The data dir may itself be recreated by the callback; re-arm shortly after.
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := w.watchDataDir(); err != nil {
			log.Warn().Err(err).Str("dir", w.dataDir).Msg("Failed to re-arm watch")
		}
	}()
}
