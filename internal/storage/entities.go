package storage

import "time"

type Reminder struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    int
	DueDate     string
	DueTime     string
	CreatedAt   time.Time
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type ReminderListFilter struct {
	UserID string
	Limit  int
	Offset int
}
