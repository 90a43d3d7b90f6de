package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

const (
	shortIDLen = 8
	dateLayout = "2006-01-02 15:04"
)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func typeLabel(t models.MessageType) string {
	label := fmt.Sprintf("%-8s", t)
	switch t {
	case models.TypeTodo:
		return yellow(label)
	case models.TypeReminder:
		return cyan(label)
	default:
		return green(label)
	}
}

func displayText(m models.Message) string {
	if m.Encrypted {
		return gray("<encrypted>")
	}
	return m.Text
}

// formatLine renders a one-line summary used by /list.
func formatLine(m models.Message) string {
	var b strings.Builder

	marker := " "
	if !m.IsRead {
		marker = bold("*")
	}
	fmt.Fprintf(&b, "%s %s %s ", marker, gray(shortID(m.ID)), typeLabel(m.Type))

	switch {
	case m.Type == models.TypeTodo && m.IsCompleted:
		b.WriteString("[x] ")
	case m.Type == models.TypeTodo:
		b.WriteString("[ ] ")
	case m.IsCompleted:
		b.WriteString("(done) ")
	}
	b.WriteString(displayText(m))

	if m.ReminderDate != nil {
		b.WriteString(" " + cyan("@ "+m.ReminderDate.Format(dateLayout)))
	}
	if n := len(m.Links); n > 0 {
		b.WriteString(" " + gray(fmt.Sprintf("(%d links)", n)))
	}
	return b.String()
}

// formatDetails renders every field of m for /show.
func formatDetails(m models.Message, previews []string) string {
	var b strings.Builder

	row := func(name, value string) {
		fmt.Fprintf(&b, "%-10s %s\n", name+":", value)
	}

	row("id", m.ID)
	row("type", typeLabel(m.Type))
	row("created", m.CreatedAt.Format(common.TimestampLayout))
	row("completed", yesNo(m.IsCompleted))
	if m.ReminderDate != nil {
		row("reminder", m.ReminderDate.Format(dateLayout))
	}
	if m.CalendarEventID != "" {
		row("calendar", m.CalendarEventID)
	}
	if m.Encrypted {
		row("encrypted", "yes")
	}
	b.WriteString("\n" + displayText(m) + "\n")

	for _, p := range previews {
		if p == "" {
			continue
		}
		b.WriteString("\n" + indent(p, "  | ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
