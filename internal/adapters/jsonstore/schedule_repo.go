// Package jsonstore persiste le planning et les leaders dans des fichiers JSON,
// réécrits intégralement à chaque sauvegarde.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

type ScheduleRepository struct {
	logger zerolog.Logger
	path   string
}

func NewScheduleRepository(logger zerolog.Logger, path string) *ScheduleRepository {
	return &ScheduleRepository{logger: logger, path: path}
}

func (r *ScheduleRepository) Path() string { return r.path }

// Load renvoie un store vide si le fichier est absent ou illisible.
func (r *ScheduleRepository) Load(ctx context.Context) (domain.Schedule, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("path", r.path).Msg("schedule file unreadable, using empty store")
		}
		return emptySchedule(), nil
	}
	var doc domain.Schedule
	if err := json.Unmarshal(b, &doc); err != nil {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("schedule file malformed, using empty store")
		return emptySchedule(), nil
	}
	if doc.Entries == nil {
		doc.Entries = []domain.ScheduleEntry{}
	}
	return doc, nil
}

func (r *ScheduleRepository) Save(ctx context.Context, doc domain.Schedule) error {
	if doc.Entries == nil {
		doc.Entries = []domain.ScheduleEntry{}
	}
	if err := writeJSON(r.path, doc); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	r.logger.Debug().Str("path", r.path).Int("entries", len(doc.Entries)).Msg("schedule saved")
	return nil
}

// RawEntries renvoie les entrées sans décodage typé (inspection des champs).
func (r *ScheduleRepository) RawEntries(ctx context.Context) ([]map[string]any, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []map[string]any{}, nil
		}
		return nil, err
	}
	var doc struct {
		Schedule []map[string]any `json:"schedule"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	if doc.Schedule == nil {
		doc.Schedule = []map[string]any{}
	}
	return doc.Schedule, nil
}

func emptySchedule() domain.Schedule {
	return domain.Schedule{Entries: []domain.ScheduleEntry{}}
}

// writeJSON écrit v indenté (2 espaces) via un fichier temporaire puis un rename.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
