package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/mindsync/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCmd(""), m.loadSpinner.Tick}
	if m.scheduler != nil {
		cmds = append(cmds, waitForDeliveryCmd(m.scheduler.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case m.Keys.Palette, ":":
			return m.openPalette(""), nil
		case m.Keys.Add:
			return m.openPalette("add "), nil
		case m.Keys.Delete:
			selected, ok := m.currentReminder()
			if !ok {
				m.Status = StatusBar{Text: "no reminder selected", IsError: true}
				return m, nil
			}
			m.Status = StatusBar{Text: fmt.Sprintf("deleting %s", selected.Title)}
			loading := m.startLoading()
			return m, tea.Batch(m.deleteCmd(selected), loading)
		case m.Keys.Refresh:
			loading := m.startLoading()
			return m, tea.Batch(m.loadCmd("reminders refreshed"), loading)
		case "j", "down":
			m.moveCursor(1)
			return m, nil
		case "k", "up":
			m.moveCursor(-1)
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.loadSpinner, cmd = m.loadSpinner.Update(typed)
		return m, cmd
	case RemindersLoadedMsg:
		m.applyLoaded(typed)
		return m, nil
	case DeliveryMsg:
		m.applyDelivery(typed.Delivery)
		if m.scheduler != nil {
			return m, waitForDeliveryCmd(m.scheduler.C())
		}
		return m, nil
	case AppErrorMsg:
		m.Loading = false
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	if m.Loading {
		status = strings.TrimSpace(m.loadSpinner.View() + " " + status)
	}

	rows := make([]views.ReminderRowData, 0, len(m.Reminders))
	for _, r := range m.Reminders {
		rows = append(rows, m.rowFor(r))
	}
	leftPane := views.RenderReminderPanel(views.ReminderPanelData{
		ListView:   m.reminderList.View(),
		Rows:       rows,
		SelectedID: m.SelectedID,
	})
	rightPane := m.renderDetailPane() +
		"\n" + views.RenderCommandPalette(m.Palette.Active, m.Palette.Input) +
		m.renderHelpIfVisible()

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("mindsync | user: %s | reminders: %d | delivered: %d", m.UserID, len(m.Reminders), len(m.Delivered)),
		Banner:       views.RenderPermissionBanner(string(m.Permission)),
		LeftPane:     leftPane,
		RightPane:    strings.TrimSpace(rightPane),
		StatusLine:   status,
		Notification: m.renderNotificationView(),
		Footer:       fmt.Sprintf("keys: j/k move | %s add | %s delete | %s refresh | %s cmd | %s help | %s quit", m.Keys.Add, m.Keys.Delete, m.Keys.Refresh, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderDetailPane() string {
	selected, ok := m.currentReminder()
	if !ok {
		return views.RenderReminderDetail(views.ReminderDetailData{})
	}
	row := m.rowFor(selected)
	return views.RenderReminderDetail(views.ReminderDetailData{
		ID:           selected.ID,
		Title:        selected.Title,
		Priority:     row.Priority,
		Due:          selected.Date + " " + selected.Time,
		Relative:     row.Relative,
		MarkdownView: m.detailViewport.View(),
	})
}

func (m Model) renderNotificationView() string {
	log := make([]views.DeliveryData, 0, len(m.Deliveries))
	for _, d := range m.Deliveries {
		log = append(log, views.DeliveryData{
			Title:   d.Title,
			FiredAt: d.FiredAt.In(m.loc).Format("15:04:05"),
			Source:  string(d.Source),
			Status:  string(d.Result.Status),
		})
	}
	out := views.RenderDeliveryLog(log)
	if len(m.Notifications) > 0 {
		n := m.Notifications[len(m.Notifications)-1]
		out += views.RenderNotification(n.Level, n.Body)
	}
	return strings.TrimSpace(out)
}

func (m *Model) syncBubbleData() {
	items := make([]list.Item, 0, len(m.Reminders))
	for _, r := range m.Reminders {
		row := m.rowFor(r)
		desc := fmt.Sprintf("%s | %s %s | %s", row.Priority, r.Date, r.Time, row.Relative)
		items = append(items, listItem{title: r.Title, description: desc})
	}
	m.reminderList.SetItems(items)
	if len(items) > 0 && m.Cursor < len(items) {
		m.reminderList.Select(m.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	md := ""
	if sel, ok := m.currentReminder(); ok {
		md = fmt.Sprintf("## %s\n\n%s", sel.Title, sel.Description)
		if strings.TrimSpace(sel.Description) == "" {
			md = fmt.Sprintf("## %s\n\n_No description_", sel.Title)
		}
	}
	// glamour is slow; only re-render when the selection changes
	if md != m.detailSource {
		m.detailSource = md
		m.detailViewport.SetContent(views.RenderMarkdown(md))
	}
}

func (m *Model) startLoading() tea.Cmd {
	m.Loading = true
	return m.loadSpinner.Tick
}
