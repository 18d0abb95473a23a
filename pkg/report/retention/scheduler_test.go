package retention

import (
	"context"
	"testing"
	"time"

	"github.com/clayv/RateGate/pkg/report/storage"
)

func TestScheduler_StartStop(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"})

	if p.NextPruning() != nil {
		t.Error("NextPruning() should be nil before Start")
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Fatal("scheduler should be running")
	}
	if err := p.Start(context.Background()); err == nil {
		t.Error("second Start() should fail while running")
	}

	next := p.NextPruning()
	if next == nil {
		t.Fatal("NextPruning() = nil")
	}
	if next.Hour() != 3 || next.Minute() != 0 || !next.After(time.Now()) {
		t.Errorf("NextPruning() = %v, want a future 03:00", next)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("scheduler should stop")
	}
	p.Stop()
}

func TestScheduler_EmptySchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{RetentionDays: 30})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if p.scheduler.IsRunning() {
		t.Error("empty schedule should leave the scheduler idle")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{PruneSchedule: "every tuesday"})

	if err := p.Start(context.Background()); err == nil {
		t.Error("Start() should reject an invalid cron expression")
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{PruneSchedule: "@every 1h"})

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not stop after context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
