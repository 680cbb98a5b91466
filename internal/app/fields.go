package app

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

const maxFieldExamples = 5

type FieldInspector struct {
	local  ports.RawScheduleSource
	remote ports.RemoteSchema
}

// NewFieldInspector accepte remote == nil.
func NewFieldInspector(local ports.RawScheduleSource, remote ports.RemoteSchema) *FieldInspector {
	return &FieldInspector{local: local, remote: remote}
}

// Inspect ne renvoie une erreur que si le store local est illisible;
// un échec distant est consigné dans le rapport.
func (f *FieldInspector) Inspect(ctx context.Context) (domain.FieldReport, error) {
	var rep domain.FieldReport
	if f.remote != nil {
		props, err := f.remote.DescribeDatabase(ctx)
		if err != nil {
			rep.RemoteError = err.Error()
		} else {
			rep.Remote = props
		}
	} else {
		rep.RemoteError = ErrRemoteNotConfigured.Error()
	}

	raw, err := f.local.RawEntries(ctx)
	if err != nil {
		return rep, err
	}
	rep.Local = FieldStats(raw)
	return rep, nil
}

// FieldStats compte, par champ, occurrences, valeurs non nulles, types JSON et exemples distincts.
func FieldStats(entries []map[string]any) []domain.FieldStat {
	byName := map[string]*domain.FieldStat{}
	types := map[string]map[string]struct{}{}
	for _, e := range entries {
		for k, v := range e {
			st, ok := byName[k]
			if !ok {
				st = &domain.FieldStat{Name: k, Types: []string{}, Examples: []any{}}
				byName[k] = st
				types[k] = map[string]struct{}{}
			}
			st.Count++
			if v == nil {
				continue
			}
			st.NonNullCount++
			types[k][jsonType(v)] = struct{}{}
			if len(st.Examples) < maxFieldExamples && !containsValue(st.Examples, v) {
				st.Examples = append(st.Examples, v)
			}
		}
	}

	out := make([]domain.FieldStat, 0, len(byName))
	for name, st := range byName {
		for t := range types[name] {
			st.Types = append(st.Types, t)
		}
		sort.Strings(st.Types)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func containsValue(list []any, v any) bool {
	for _, x := range list {
		if reflect.DeepEqual(x, v) {
			return true
		}
	}
	return false
}
