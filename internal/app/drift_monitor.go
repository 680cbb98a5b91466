package app

import (
	"context"
	"encoding/json"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

const TopicScheduleDrift = "schedule.drift"

// DriftMonitor compare périodiquement les deux stores, sans jamais écrire.
type DriftMonitor struct {
	logger zerolog.Logger
	sync   *Synchronizer
	bus    ports.EventBus

	// Spec est une expression cron à 5 champs ou un descripteur (@every 1h).
	Spec string
}

type DriftSummary struct {
	LocalOnly  int  `json:"localOnly"`
	RemoteOnly int  `json:"remoteOnly"`
	Conflicts  int  `json:"conflicts"`
	InSync     bool `json:"inSync"`
}

func NewDriftMonitor(logger zerolog.Logger, sync *Synchronizer, bus ports.EventBus) *DriftMonitor {
	return &DriftMonitor{
		logger: logger,
		sync:   sync,
		bus:    bus,
		Spec:   "@every 1h",
	}
}

// Run bloque jusqu'à l'annulation de ctx.
func (m *DriftMonitor) Run(ctx context.Context) error {
	c := cron.New(cron.WithLogger(cronLogger{m.logger}))
	if _, err := c.AddFunc(m.Spec, func() { m.Check(ctx) }); err != nil {
		return err
	}
	c.Start()
	m.logger.Info().Str("spec", m.Spec).Msg("drift monitor started")

	<-ctx.Done()
	<-c.Stop().Done()
	m.logger.Info().Msg("drift monitor stopped")
	return nil
}

func (m *DriftMonitor) Check(ctx context.Context) (DriftSummary, bool) {
	if m.sync == nil || !m.sync.RemoteEnabled() {
		return DriftSummary{}, false
	}
	diff, err := m.sync.Compare(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("drift check failed")
		return DriftSummary{}, false
	}
	sum := DriftSummary{
		LocalOnly:  len(diff.LocalOnly),
		RemoteOnly: len(diff.RemoteOnly),
		Conflicts:  len(diff.Conflicts),
		InSync:     diff.IsEmpty(),
	}
	ev := m.logger.Info()
	if !sum.InSync {
		ev = m.logger.Warn()
	}
	ev.Int("local_only", sum.LocalOnly).
		Int("remote_only", sum.RemoteOnly).
		Int("conflicts", sum.Conflicts).
		Msg("drift check")

	if m.bus != nil {
		if b, err := json.Marshal(sum); err == nil {
			m.bus.Publish(TopicScheduleDrift, b)
		}
	}
	return sum, true
}

// cronLogger adapte zerolog à l'interface cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
