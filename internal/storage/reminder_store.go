package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/mindsync/internal/model"
)

var ErrMissingFields = errors.New("storage: missing required fields")

// ReminderStore is the reminder CRUD surface the view talks to. It maps
// between storage rows and model.Reminder.
type ReminderStore struct {
	repo Repository
	now  func() time.Time
}

func NewReminderStore(repo Repository) *ReminderStore {
	return &ReminderStore{repo: repo, now: time.Now}
}

// List returns the user's reminders ordered by priority, date and time.
func (s *ReminderStore) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	return s.ListPage(ctx, userID, 0, 0)
}

// ListPage is List restricted to one page. A zero limit means no limit.
func (s *ReminderStore) ListPage(ctx context.Context, userID string, limit, offset int) ([]model.Reminder, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id", ErrMissingFields)
	}
	rows, err := s.repo.ListReminders(ctx, ReminderListFilter{UserID: userID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	out := make([]model.Reminder, 0, len(rows))
	for _, row := range rows {
		out = append(out, toModel(row))
	}
	return out, nil
}

// Create assigns an id and creation time, applies defaults and persists in.
func (s *ReminderStore) Create(ctx context.Context, in model.Reminder) (model.Reminder, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	if in.Title == "" || in.Date == "" || in.Time == "" || strings.TrimSpace(in.UserID) == "" {
		return model.Reminder{}, ErrMissingFields
	}
	if in.Priority == 0 {
		in.Priority = model.PriorityMedium
	}
	// due_time is ordered as text, so it is always stored as 15:04:05.
	if clock, err := model.ParseClock(in.Time); err == nil {
		in.Time = clock.Format("15:04:05")
	}
	in.Description = strings.TrimSpace(in.Description)
	in.ID = uuid.NewString()
	in.CreatedAt = s.now().UTC()
	if err := in.Validate(); err != nil {
		return model.Reminder{}, err
	}
	if err := s.repo.CreateReminder(ctx, fromModel(in)); err != nil {
		return model.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return in, nil
}

func (s *ReminderStore) Get(ctx context.Context, id string) (model.Reminder, error) {
	if strings.TrimSpace(id) == "" {
		return model.Reminder{}, fmt.Errorf("%w: reminder id", ErrMissingFields)
	}
	row, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("get reminder %s: %w", id, err)
	}
	return toModel(row), nil
}

// Delete looks the reminder up first so a missing id reports which one.
func (s *ReminderStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteReminder(ctx, id)
}

func toModel(row Reminder) model.Reminder {
	return model.Reminder{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Description: row.Description,
		Priority:    model.Priority(row.Priority),
		Date:        row.DueDate,
		Time:        row.DueTime,
		CreatedAt:   row.CreatedAt,
	}
}

func fromModel(in model.Reminder) Reminder {
	return Reminder{
		ID:          in.ID,
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    int(in.Priority),
		DueDate:     in.Date,
		DueTime:     in.Time,
		CreatedAt:   in.CreatedAt,
	}
}
