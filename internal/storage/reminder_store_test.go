package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/mindsync/internal/model"
)

func TestReminderStoreCreateAppliesDefaults(t *testing.T) {
	store := NewReminderStore(setupRepo(t))
	fixed := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	created, err := store.Create(context.Background(), model.Reminder{
		UserID: "u1",
		Title:  "  Drink water ",
		Date:   "2026-02-09",
		Time:   "15:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Priority != model.PriorityMedium {
		t.Fatalf("expected default priority P2, got %s", created.Priority)
	}
	if created.Title != "Drink water" || created.Description != "" {
		t.Fatalf("unexpected normalized fields: %#v", created)
	}
	if !created.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected created_at: %s", created.CreatedAt)
	}

	listed, err := store.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].Time != "15:00:00" {
		t.Fatalf("unexpected list: %#v", listed)
	}
}

func TestReminderStoreCreateRejectsMissingFields(t *testing.T) {
	store := NewReminderStore(setupRepo(t))
	_, err := store.Create(context.Background(), model.Reminder{UserID: "u1", Title: "no date"})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	_, err = store.Create(context.Background(), model.Reminder{UserID: "u1", Title: "bad", Date: "2026-13-01", Time: "10:00"})
	if !errors.Is(err, model.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestReminderStoreDelete(t *testing.T) {
	store := NewReminderStore(setupRepo(t))
	ctx := context.Background()
	created, err := store.Create(ctx, model.Reminder{UserID: "u1", Title: "temp", Date: "2026-02-09", Time: "10:00", Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), created.ID) {
		t.Fatalf("expected ErrNotFound naming the id, got %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted reminder to be gone, got %v", err)
	}
	if err := store.Delete(ctx, " "); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestReminderStoreCreateNormalizesClock(t *testing.T) {
	store := NewReminderStore(setupRepo(t))
	ctx := context.Background()
	for _, clock := range []string{"10:00", "9:05", "09:30:15"} {
		if _, err := store.Create(ctx, model.Reminder{UserID: "u1", Title: "at " + clock, Date: "2026-02-09", Time: clock}); err != nil {
			t.Fatalf("create %s: %v", clock, err)
		}
	}
	listed, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, r := range listed {
		got = append(got, r.Time)
	}
	want := []string{"09:05:00", "09:30:15", "10:00:00"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := store.Create(ctx, model.Reminder{UserID: "u1", Title: "bad", Date: "2026-02-09", Time: "25:00"}); !errors.Is(err, model.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestReminderStoreGetAndListPage(t *testing.T) {
	store := NewReminderStore(setupRepo(t))
	ctx := context.Background()
	var ids []string
	for _, clock := range []string{"08:00", "09:00", "10:00"} {
		created, err := store.Create(ctx, model.Reminder{UserID: "u1", Title: "at " + clock, Date: "2026-02-09", Time: clock})
		if err != nil {
			t.Fatalf("create %s: %v", clock, err)
		}
		ids = append(ids, created.ID)
	}

	got, err := store.Get(ctx, ids[1])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "at 09:00" || got.Time != "09:00:00" {
		t.Fatalf("unexpected reminder: %#v", got)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	page, err := store.ListPage(ctx, "u1", 1, 1)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Fatalf("unexpected page: %#v", page)
	}
	tail, err := store.ListPage(ctx, "u1", 0, 2)
	if err != nil {
		t.Fatalf("list tail: %v", err)
	}
	if len(tail) != 1 || tail[0].ID != ids[2] {
		t.Fatalf("unexpected tail: %#v", tail)
	}
}
