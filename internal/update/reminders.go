package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sandeepkv93/mindsync/internal/model"
	"github.com/sandeepkv93/mindsync/internal/scheduler"
	"github.com/sandeepkv93/mindsync/internal/views"
)

// loadCmd fetches the list and hands it to the scheduler. Every mutation
// ends here so timers always reflect what the store holds.
func (m Model) loadCmd(note string) tea.Cmd {
	store, sched, userID, timeout, mu := m.store, m.scheduler, m.UserID, m.timeout, m.syncMu
	return func() tea.Msg {
		if store == nil {
			return RemindersLoadedMsg{Err: fmt.Errorf("no reminder store configured")}
		}
		mu.Lock()
		defer mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fetchAndReconcile(ctx, store, sched, userID, note)
	}
}

func (m Model) createCmd(r model.Reminder) tea.Cmd {
	store, sched, userID, timeout, mu := m.store, m.scheduler, m.UserID, m.timeout, m.syncMu
	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		created, err := store.Create(ctx, r)
		if err != nil {
			return AppErrorMsg{Err: fmt.Errorf("add reminder: %w", err)}
		}
		return fetchAndReconcile(ctx, store, sched, userID, fmt.Sprintf("added reminder: %s", created.Title))
	}
}

func (m Model) deleteCmd(r model.Reminder) tea.Cmd {
	store, sched, userID, timeout, mu := m.store, m.scheduler, m.UserID, m.timeout, m.syncMu
	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := store.Delete(ctx, r.ID); err != nil {
			return AppErrorMsg{Err: fmt.Errorf("delete reminder: %w", err)}
		}
		return fetchAndReconcile(ctx, store, sched, userID, fmt.Sprintf("deleted reminder: %s", r.Title))
	}
}

// fetchAndReconcile must run under syncMu. Otherwise an older List can reach
// Reconcile after a newer one and re-arm a deleted reminder.
func fetchAndReconcile(ctx context.Context, store Store, sched Scheduler, userID, note string) RemindersLoadedMsg {
	items, err := store.List(ctx, userID)
	if err != nil {
		return RemindersLoadedMsg{Err: fmt.Errorf("load reminders: %w", err)}
	}
	msg := RemindersLoadedMsg{Items: items, Note: note}
	if sched != nil {
		msg.ReconcileErr = sched.Reconcile(ctx, items)
	}
	return msg
}

func waitForDeliveryCmd(ch <-chan scheduler.Delivery) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return DeliveryMsg{Delivery: ev}
	}
}

func (m *Model) applyLoaded(msg RemindersLoadedMsg) {
	m.Loading = false
	if msg.Err != nil {
		m.LastError = msg.Err
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
		return
	}
	items := append([]model.Reminder(nil), msg.Items...)
	model.SortReminders(items)
	m.Reminders = items

	m.Cursor = 0
	for i, r := range items {
		if r.ID == m.SelectedID {
			m.Cursor = i
			break
		}
	}
	m.syncSelectedToCursor()

	switch {
	case msg.ReconcileErr != nil:
		m.LastError = msg.ReconcileErr
		m.Status = StatusBar{Text: fmt.Sprintf("some reminders could not be scheduled: %v", msg.ReconcileErr), IsError: true}
	case msg.Note != "":
		m.Status = StatusBar{Text: msg.Note}
	}
}

func (m *Model) applyDelivery(d scheduler.Delivery) {
	m.Delivered[d.ReminderID] = true
	m.Deliveries = append(m.Deliveries, d)
	if len(m.Deliveries) > maxDeliveryLog {
		m.Deliveries = m.Deliveries[len(m.Deliveries)-maxDeliveryLog:]
	}
	m.Status = StatusBar{Text: fmt.Sprintf("reminder due: %s", d.Title)}
	m.notify("Reminder", d.Title, "info")
}

func (m *Model) moveCursor(delta int) {
	if len(m.Reminders) == 0 {
		m.Cursor = 0
		m.SelectedID = ""
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Reminders) {
		m.Cursor = len(m.Reminders) - 1
	}
	m.syncSelectedToCursor()
}

func (m *Model) syncSelectedToCursor() {
	if m.Cursor < 0 || m.Cursor >= len(m.Reminders) {
		m.SelectedID = ""
		return
	}
	m.SelectedID = m.Reminders[m.Cursor].ID
}

func (m Model) currentReminder() (model.Reminder, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Reminders) {
		return model.Reminder{}, false
	}
	return m.Reminders[m.Cursor], true
}

// resolveTarget matches an id prefix against the loaded list.
func (m Model) resolveTarget(prefix string) (model.Reminder, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var found []model.Reminder
	for _, r := range m.Reminders {
		if strings.HasPrefix(strings.ToLower(r.ID), prefix) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return model.Reminder{}, fmt.Errorf("no reminder matches %q", prefix)
	case 1:
		return found[0], nil
	default:
		return model.Reminder{}, fmt.Errorf("%q matches %d reminders", prefix, len(found))
	}
}

func (m Model) rowFor(r model.Reminder) views.ReminderRowData {
	row := views.ReminderRowData{
		ID:        r.ID,
		Title:     r.Title,
		Priority:  r.Priority.String(),
		Date:      r.Date,
		Time:      r.Time,
		Delivered: m.Delivered[r.ID],
	}
	if due, err := r.DueAt(m.loc); err == nil {
		now := m.now()
		row.Relative = humanize.RelTime(due, now, "ago", "from now")
		row.Overdue = due.Before(now)
	} else {
		row.Relative = "invalid due time"
	}
	return row
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now(),
	})
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
}
