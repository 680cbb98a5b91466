// Package wiring assemble adaptateurs et services à partir de la configuration.
// Partagé par bookclub-server et la CLI bookclub.
package wiring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/jsonstore"
	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/notion"
	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/config"
	"github.com/Guilhem-Bonnet/bookclub/internal/logging"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

type Stack struct {
	Config config.Config

	DB           *sqlite.DB
	Bus          *memorybus.Bus
	ScheduleRepo *jsonstore.ScheduleRepository
	LeaderRepo   *jsonstore.LeaderRepository
	// Notion est nil en mode local.
	Notion *notion.Client

	Schedules   *app.ScheduleService
	Leaders     *app.LeaderService
	Sync        *app.Synchronizer
	Invitations *app.InvitationService
	Fields      *app.FieldInspector
	Settings    *app.SettingsService
	Runs        *app.RunRecorder
	Catalog     *app.CatalogService
}

// Build ouvre la base SQLite et construit tous les services.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Stack, error) {
	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", cfg.DBPath, err)
	}

	s := &Stack{
		Config:       cfg,
		DB:           db,
		Bus:          memorybus.New(),
		ScheduleRepo: jsonstore.NewScheduleRepository(logging.Component(logger, "schedule-store"), cfg.Paths.Schedule),
		LeaderRepo:   jsonstore.NewLeaderRepository(logging.Component(logger, "leader-store"), cfg.Paths.Leaders),
	}

	var (
		remote  ports.RemoteSchedule
		schema  ports.RemoteSchema
		catalog ports.RemoteCatalog
	)
	if cfg.RemoteEnabled() {
		p := cfg.Notion.Properties
		client, err := notion.NewClient(logging.Component(logger, "notion"), notion.Options{
			APIKey:        cfg.Notion.APIKey,
			DatabaseID:    cfg.Notion.DatabaseID,
			BaseURL:       cfg.Notion.BaseURL,
			Version:       cfg.Notion.Version,
			Timeout:       cfg.Notion.Timeout,
			MaxConcurrent: cfg.Notion.MaxConcurrent,
			Properties: notion.Properties{
				Title:  p.Title,
				Date:   p.Date,
				Leader: p.Leader,
				Host:   p.Host,
				Author: p.Author,
				Status: p.Status,
			},
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.Notion = client
		remote, schema, catalog = client, client, client
	} else {
		logger.Warn().Msg("notion not configured: local-only mode")
	}

	tpl, err := app.LoadInvitationTemplate(cfg.Paths.InvitationTemplate)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s.Settings = app.NewSettingsService(sqlite.NewSettingsRepository(db.SQL))
	s.Runs = app.NewRunRecorder(logging.Component(logger, "run-recorder"), s.Bus, sqlite.NewSyncRunsRepository(db.SQL))
	s.Schedules = app.NewScheduleService(s.ScheduleRepo, s.Bus)
	s.Leaders = app.NewLeaderService(s.LeaderRepo, s.Bus)
	s.Sync = app.NewSynchronizer(logging.Component(logger, "sync"), s.ScheduleRepo, remote, s.Bus)
	s.Invitations = app.NewInvitationService(tpl, s.LeaderRepo, s.ScheduleRepo, s.Settings)
	s.Fields = app.NewFieldInspector(s.ScheduleRepo, schema)
	s.Catalog = app.NewCatalogService(logging.Component(logger, "catalog"), catalog, s.ScheduleRepo, s.LeaderRepo)
	return s, nil
}

func (s *Stack) Close() error {
	s.Bus.Close()
	return s.DB.Close()
}
