package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"r3e-sheets/internal/log"
)

// RefreshWatcher watches for a trigger file and asks for an immediate pass.
// The file may list car ids separated by whitespace to restrict the pass.
type RefreshWatcher struct {
	triggerPath string
	triggers    chan []CarID
	l           *log.Logger
}

// NewRefreshWatcher creates a new refresh file watcher
func NewRefreshWatcher(triggerPath string) *RefreshWatcher {
	return &RefreshWatcher{
		triggerPath: filepath.Clean(triggerPath),
		triggers:    make(chan []CarID, 1),
		l:           log.Default().Named("watcher"),
	}
}

// Triggers delivers the car ids of each detected trigger
func (w *RefreshWatcher) Triggers() <-chan []CarID {
	return w.triggers
}

// Start begins watching the trigger file's directory until ctx is done
func (w *RefreshWatcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.triggerPath)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.l.Info("Refresh trigger watching", log.String("file", w.triggerPath))

	// a trigger left behind while the tool was down still counts
	w.checkTrigger()

	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.triggerPath {
					continue
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
					w.checkTrigger()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.l.Warn("watcher error", log.ErrorField(err))
			case <-ctx.Done():
				w.l.Debug("Refresh trigger watcher stopping")
				return
			}
		}
	}()
	return nil
}

// checkTrigger reads and removes the trigger file, then queues a pass
func (w *RefreshWatcher) checkTrigger() {
	content, err := os.ReadFile(w.triggerPath)
	if err != nil {
		return
	}
	if rmErr := os.Remove(w.triggerPath); rmErr != nil {
		w.l.Warn("Could not remove trigger file", log.ErrorField(rmErr))
	}

	cars, err := ParseCarIDs(strings.Fields(string(content)))
	if err != nil {
		w.l.Warn("Ignoring trigger file", log.ErrorField(err))
		return
	}
	w.l.Info("Refresh trigger file detected", log.Int("cars", len(cars)))

	select {
	case w.triggers <- cars:
	default:
		w.l.Info("Skipping trigger - a pass is already queued")
	}
}
