package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

type LeaderRepository struct {
	logger zerolog.Logger
	path   string
}

func NewLeaderRepository(logger zerolog.Logger, path string) *LeaderRepository {
	return &LeaderRepository{logger: logger, path: path}
}

func (r *LeaderRepository) Path() string { return r.path }

// List renvoie les leaders triés par nom; fichier absent ou illisible = liste vide.
func (r *LeaderRepository) List(ctx context.Context) ([]domain.Leader, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("path", r.path).Msg("leaders file unreadable, using empty list")
		}
		return []domain.Leader{}, nil
	}
	leaders, err := NormalizeLeaders(b)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("leaders file malformed, using empty list")
		return []domain.Leader{}, nil
	}
	return leaders, nil
}

// Save écrit toujours la forme canonique {"leaders": {"<nom>": {...}}}.
func (r *LeaderRepository) Save(ctx context.Context, leaders []domain.Leader) error {
	byName := make(map[string]domain.Leader, len(leaders))
	for _, l := range leaders {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		byName[l.Name] = l
	}
	if err := writeJSON(r.path, leadersFile{Leaders: byName}); err != nil {
		return fmt.Errorf("save leaders: %w", err)
	}
	return nil
}

type leadersFile struct {
	Leaders map[string]domain.Leader `json:"leaders"`
}

// NormalizeLeaders accepte les formes rencontrées:
//
//	{"leaders": {"<nom>": {...}}}
//	{"leaders": [{...}]}
//	[{...}]
//	{"<nom>": {...}}
//
// Le nom manquant d'une fiche est repris de sa clé.
func NormalizeLeaders(b []byte) ([]domain.Leader, error) {
	b = trimBOM(b)
	var root any
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	if obj, ok := root.(map[string]any); ok {
		if inner, ok := obj["leaders"]; ok {
			root = inner
		}
	}

	var out []domain.Leader
	switch v := root.(type) {
	case []any:
		for _, item := range v {
			l, err := decodeLeader(item, "")
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
	case map[string]any:
		for key, item := range v {
			l, err := decodeLeader(item, key)
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
	case nil:
	default:
		return nil, fmt.Errorf("unexpected leaders shape %T", root)
	}

	clean := make([]domain.Leader, 0, len(out))
	for _, l := range out {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			continue
		}
		clean = append(clean, l)
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Name < clean[j].Name })
	return clean, nil
}

func decodeLeader(item any, key string) (domain.Leader, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return domain.Leader{}, err
	}
	var l domain.Leader
	if err := json.Unmarshal(raw, &l); err != nil {
		return domain.Leader{}, fmt.Errorf("leader %q: %w", key, err)
	}
	if l.Name == "" {
		l.Name = key
	}
	return l, nil
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
