package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

func TestRunRecorderListensToBus(t *testing.T) {
	bus := &memBus{}
	runs := &memRunsRepo{}
	rec := NewRunRecorder(zerolog.Nop(), bus, runs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	// Attendre l'abonnement.
	deadline := time.Now().Add(time.Second)
	for {
		bus.mu.Lock()
		n := len(bus.subs)
		bus.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recorder never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rep := domain.SyncReport{ID: "run-1", Direction: domain.SyncPush, Results: []domain.ItemResult{}}
	rep.Add(domain.ItemResult{Date: "2024-01-01", Status: domain.ItemError, Message: "boom"})
	rep.Add(domain.ItemResult{Date: "2024-01-08", Status: domain.ItemCreated})
	b, _ := json.Marshal(rep)
	bus.Publish("schedule.created", []byte(`{}`))
	bus.Publish(TopicSyncCompleted, b)

	deadline = time.Now().Add(time.Second)
	for {
		if _, err := runs.Get(ctx, "run-1"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	dto, err := rec.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.State != string(domain.SyncRunPartial) || dto.Failed != 1 || dto.Report == nil || len(dto.Report.Results) != 2 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	list, _ := rec.List(ctx, 10)
	if len(list) != 1 || list[0].Report != nil {
		t.Fatalf("list must not embed reports: %+v", list)
	}

	cancel()
	<-done
}

func TestDriftMonitorCheck(t *testing.T) {
	bus := &memBus{}
	local := newMemScheduleRepo(entry("2024-01-01", "A", "X"))
	remote := newFakeRemote(entry("2024-01-01", "A", "Y"), entry("2024-01-08", "B", ""))
	m := NewDriftMonitor(zerolog.Nop(), NewSynchronizer(zerolog.Nop(), local, remote, nil), bus)

	sum, ok := m.Check(context.Background())
	if !ok {
		t.Fatalf("expected check to run")
	}
	if sum.Conflicts != 1 || sum.RemoteOnly != 1 || sum.LocalOnly != 0 || sum.InSync {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if topics := bus.topics(); len(topics) != 1 || topics[0] != TopicScheduleDrift {
		t.Fatalf("unexpected events: %v", topics)
	}
	if local.saves != 0 || len(remote.createCalls)+len(remote.updateCalls) != 0 {
		t.Fatalf("drift check must not write")
	}

	disabled := NewDriftMonitor(zerolog.Nop(), NewSynchronizer(zerolog.Nop(), local, nil, nil), nil)
	if _, ok := disabled.Check(context.Background()); ok {
		t.Fatalf("expected no check without remote")
	}
}

func TestDriftMonitorRejectsBadSpec(t *testing.T) {
	m := NewDriftMonitor(zerolog.Nop(), nil, nil)
	m.Spec = "not a cron"
	if err := m.Run(context.Background()); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestRunRecorderStartSubscribesBeforeReturning(t *testing.T) {
	bus := &memBus{}
	runs := &memRunsRepo{}
	rec := NewRunRecorder(zerolog.Nop(), bus, runs)

	ctx, cancel := context.WithCancel(context.Background())
	done := rec.Start(ctx)

	// Publié sans attente: l'abonnement doit déjà exister.
	b, _ := json.Marshal(domain.SyncReport{ID: "run-early", Direction: domain.SyncPull})
	bus.Publish(TopicSyncCompleted, b)

	deadline := time.Now().Add(time.Second)
	for {
		if _, err := runs.Get(ctx, "run-early"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event published right after Start was lost")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("recorder did not stop")
	}
}

func TestRunRecorderStartWithoutBusIsDone(t *testing.T) {
	rec := NewRunRecorder(zerolog.Nop(), nil, nil)
	select {
	case <-rec.Start(context.Background()):
	default:
		t.Fatalf("expected closed channel")
	}
}
