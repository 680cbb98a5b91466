package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

// ScheduleRepository est le store local.
// Load ne renvoie pas d'erreur pour un fichier absent ou illisible: store vide.
type ScheduleRepository interface {
	Load(ctx context.Context) (domain.Schedule, error)
	Save(ctx context.Context, schedule domain.Schedule) error
}

// RemoteSchedule est le store distant, interrogé à chaque lecture.
type RemoteSchedule interface {
	Query(ctx context.Context, sortKey string, direction domain.SortDirection) ([]domain.ScheduleEntry, error)
	Create(ctx context.Context, entry domain.ScheduleEntry) (string, error)
	Update(ctx context.Context, id string, patch domain.EntryPatch) error
}

type LeaderRepository interface {
	List(ctx context.Context) ([]domain.Leader, error)
	Save(ctx context.Context, leaders []domain.Leader) error
}

// RawScheduleSource expose les entrées locales sans décodage typé.
type RawScheduleSource interface {
	RawEntries(ctx context.Context) ([]map[string]any, error)
}

// RemoteSchema décrit les propriétés de la base distante.
type RemoteSchema interface {
	DescribeDatabase(ctx context.Context) ([]domain.RemoteProperty, error)
}

// RemoteCatalog lit la base distante au-delà des colonnes de l'échéancier.
type RemoteCatalog interface {
	Booklist(ctx context.Context) ([]domain.BookRecord, error)
	LatestRecord(ctx context.Context) (domain.LatestRecord, error)
	Ping(ctx context.Context) (domain.RemoteHealth, error)
}
