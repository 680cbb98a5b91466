package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

// CatalogService expose les lectures de la base distante hors synchronisation.
type CatalogService struct {
	logger  zerolog.Logger
	remote  ports.RemoteCatalog
	local   ports.ScheduleRepository
	leaders ports.LeaderRepository
}

// NewCatalogService accepte remote == nil.
func NewCatalogService(logger zerolog.Logger, remote ports.RemoteCatalog, local ports.ScheduleRepository, leaders ports.LeaderRepository) *CatalogService {
	return &CatalogService{logger: logger, remote: remote, local: local, leaders: leaders}
}

func (c *CatalogService) Booklist(ctx context.Context, f domain.BooklistFilter) (domain.Booklist, error) {
	if c.remote == nil {
		return domain.Booklist{}, ErrRemoteNotConfigured
	}
	all, err := c.remote.Booklist(ctx)
	if err != nil {
		return domain.Booklist{}, err
	}
	bl := domain.NewBooklist(all, f)
	c.logger.Debug().Int("scanned", bl.Scanned).Int("matched", bl.Stats.Total).Msg("booklist filtered")
	return bl, nil
}

func (c *CatalogService) Latest(ctx context.Context) (domain.LatestRecord, error) {
	if c.remote == nil {
		return domain.LatestRecord{}, ErrRemoteNotConfigured
	}
	return c.remote.LatestRecord(ctx)
}

// Diagnose ne renvoie pas d'erreur: chaque échec est consigné dans le diagnostic.
func (c *CatalogService) Diagnose(ctx context.Context) domain.Diagnosis {
	var d domain.Diagnosis
	doc, err := c.local.Load(ctx)
	if err != nil {
		d.LocalError = err.Error()
	} else {
		var leaders []domain.Leader
		if c.leaders != nil {
			leaders, _ = c.leaders.List(ctx)
		}
		d.LocalEntries = len(doc.Entries)
		d.LocalValid = Validate(doc.Entries, leaders).IsValid
	}

	if c.remote == nil {
		d.RemoteError = ErrRemoteNotConfigured.Error()
		return d
	}
	h, err := c.remote.Ping(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("notion unreachable")
		d.RemoteError = err.Error()
		return d
	}
	d.Remote = &h
	return d
}
