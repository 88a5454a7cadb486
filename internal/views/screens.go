package views

import (
	"fmt"
	"strings"
)

type ReminderRowData struct {
	ID        string
	Title     string
	Priority  string
	Date      string
	Time      string
	Relative  string
	Overdue   bool
	Delivered bool
}

type ReminderPanelData struct {
	ListView   string
	Rows       []ReminderRowData
	SelectedID string
}

type ReminderDetailData struct {
	ID           string
	Title        string
	Priority     string
	Due          string
	Relative     string
	MarkdownView string
}

type DeliveryData struct {
	Title   string
	FiredAt string
	Source  string
	Status  string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderReminderPanel(data ReminderPanelData) string {
	var upcoming, overdue, delivered []ReminderRowData
	for _, row := range data.Rows {
		switch {
		case row.Delivered:
			delivered = append(delivered, row)
		case row.Overdue:
			overdue = append(overdue, row)
		default:
			upcoming = append(upcoming, row)
		}
	}

	var b strings.Builder
	b.WriteString("reminders:\n")
	b.WriteString("actions: [j/k]move [a]add [d]delete [r]refresh\n")
	b.WriteString(data.ListView + "\n")
	renderReminderSection(&b, "Upcoming", upcoming, data.SelectedID)
	renderReminderSection(&b, "Overdue", overdue, data.SelectedID)
	renderReminderSection(&b, "Delivered", delivered, data.SelectedID)
	return strings.TrimSpace(b.String())
}

func RenderReminderDetail(data ReminderDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	return fmt.Sprintf("details:\nid: %s\npriority: %s\ndue: %s (%s)\n\n%s",
		shortID(data.ID),
		data.Priority,
		data.Due,
		data.Relative,
		data.MarkdownView,
	)
}

func RenderDeliveryLog(items []DeliveryData) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("notifications:\n")
	for i := len(items) - 1; i >= 0; i-- {
		d := items[i]
		b.WriteString(fmt.Sprintf("- %s %s via %s (%s)\n", d.FiredAt, d.Title, d.Source, d.Status))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderPermissionBanner(state string) string {
	switch state {
	case "granted", "":
		return ""
	case "unsupported":
		return "desktop notifications are not available on this system; reminders show here only"
	case "denied":
		return "desktop notifications are blocked; reminders show here only"
	default:
		return "enable desktop notifications to be alerted when reminders are due"
	}
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("\nnotification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func renderReminderSection(b *strings.Builder, title string, rows []ReminderRowData, selectedID string) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(rows) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, row := range rows {
		cursor := " "
		if selectedID == row.ID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s %s @%s", cursor, urgencyBadge(row), shortID(row.ID), row.Priority, row.Title, row.Date+" "+row.Time))
		if row.Relative != "" {
			b.WriteString(fmt.Sprintf(" (%s)", row.Relative))
		}
		b.WriteString("\n")
	}
}

func urgencyBadge(row ReminderRowData) string {
	if row.Delivered {
		return "[DONE]"
	}
	if row.Overdue || row.Priority == "P1" {
		return "[RED]"
	}
	if row.Priority == "P2" {
		return "[YELLOW]"
	}
	return "[GREEN]"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
