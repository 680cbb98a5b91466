package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

type SyncRunRepository interface {
	Create(ctx context.Context, run domain.SyncRun) (domain.SyncRun, error)
	Get(ctx context.Context, id string) (domain.SyncRun, error)
	List(ctx context.Context, limit int) ([]domain.SyncRun, error)
}

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
