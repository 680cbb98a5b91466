package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

const TopicLocalStoreChanged = "localstore.changed"

// Watcher publie localstore.changed quand un des fichiers surveillés change.
// Les répertoires parents sont surveillés: l'écriture par rename remplace l'inode.
type Watcher struct {
	logger zerolog.Logger
	bus    ports.EventBus
	files  map[string]string

	// Debounce regroupe les rafales d'événements d'une même écriture.
	Debounce time.Duration
}

type ChangeEvent struct {
	File string `json:"file"`
	Path string `json:"path"`
	Op   string `json:"op"`
}

// NewWatcher prend un nom logique par chemin (ex: "schedule" => config/book-schedule.json).
func NewWatcher(logger zerolog.Logger, bus ports.EventBus, files map[string]string) *Watcher {
	abs := make(map[string]string, len(files))
	for name, p := range files {
		if a, err := filepath.Abs(p); err == nil {
			p = a
		}
		abs[filepath.Clean(p)] = name
	}
	return &Watcher{logger: logger, bus: bus, files: abs, Debounce: 200 * time.Millisecond}
}

func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dirs := map[string]struct{}{}
	for p := range w.files {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	w.logger.Info().Int("files", len(w.files)).Msg("local store watcher started")

	pending := map[string]ChangeEvent{}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("local store watcher stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			ce, ok := w.convert(ev)
			if !ok {
				continue
			}
			pending[ce.Path] = ce
			timer.Reset(w.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("local store watcher error")
		case <-timer.C:
			for p, ce := range pending {
				w.publish(ce)
				delete(pending, p)
			}
		}
	}
}

func (w *Watcher) convert(ev fsnotify.Event) (ChangeEvent, bool) {
	name, ok := w.files[filepath.Clean(ev.Name)]
	if !ok {
		return ChangeEvent{}, false
	}
	var op string
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		op = "write"
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		op = "remove"
	default:
		return ChangeEvent{}, false
	}
	return ChangeEvent{File: name, Path: ev.Name, Op: op}, true
}

func (w *Watcher) publish(ce ChangeEvent) {
	w.logger.Debug().Str("file", ce.File).Str("op", ce.Op).Msg("local store changed")
	if w.bus == nil {
		return
	}
	b, err := json.Marshal(ce)
	if err != nil {
		return
	}
	w.bus.Publish(TopicLocalStoreChanged, b)
}
