package console

import (
	"fmt"
	"strings"

	"farm-to-keells/internal/notification"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FA34D"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#888888"))
	activeTabStyle = tabStyle.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3FA34D"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	unreadStyle    = lipgloss.NewStyle().Bold(true)
	readStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	acceptedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FA34D"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

func (a *App) View() string {
	if a.screen == screenLogin {
		return a.viewLogin()
	}
	return a.viewInbox()
}

func (a *App) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Farm to Keells · Farmer Login"))
	b.WriteString("\n\n")
	b.WriteString(a.username.View())
	b.WriteString("\n")
	b.WriteString(a.password.View())
	b.WriteString("\n")
	if a.busy {
		b.WriteString("\n" + a.spinner.View() + " signing in…")
	}
	if a.err != nil {
		b.WriteString("\n" + errorStyle.Render(a.err.Error()))
	} else if a.status != "" {
		b.WriteString("\n" + readStyle.Render(a.status))
	}
	b.WriteString(helpStyle.Render("\ntab switch field · enter sign in · esc quit"))
	return boxStyle.Render(b.String())
}

func tabLabel(c notification.Category) string {
	if c == notification.CategoryPayment {
		return "Payments"
	}
	return "Orders"
}

func (a *App) viewInbox() string {
	var b strings.Builder

	name := ""
	if f := a.deps.Session.Current(); f != nil {
		name = f.FullName
	}
	b.WriteString(titleStyle.Render("Farm to Keells · " + name))
	b.WriteString("\n\n")

	labels := make([]string, len(tabs))
	for i, c := range tabs {
		label := tabLabel(c)
		if i < len(a.feeds) {
			if n := a.feeds[i].UnreadCount(); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		}
		if i == a.tab {
			labels[i] = activeTabStyle.Render(label)
		} else {
			labels[i] = tabStyle.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labels...))
	b.WriteString("\n\n")
	b.WriteString(a.viewItems())

	if a.busy {
		b.WriteString("\n" + a.spinner.View() + " " + a.status)
	} else if a.err != nil {
		b.WriteString("\n" + errorStyle.Render(a.err.Error()))
	} else if a.status != "" {
		b.WriteString("\n" + readStyle.Render(a.status))
	}

	help := "←/→ tab · ↑/↓ move · r read · R read all · d delete · g refresh · L logout · q quit"
	if a.tab < len(tabs) && tabs[a.tab] == notification.CategoryPayment {
		help = "a accept · " + help
	}
	b.WriteString(helpStyle.Render(help))
	return boxStyle.Render(b.String())
}

func (a *App) viewItems() string {
	f := a.activeFeed()
	if f == nil {
		return readStyle.Render("not loaded")
	}
	if f.Loading() && len(f.Items()) == 0 {
		return readStyle.Render("loading…")
	}
	if err := f.Err(); err != nil {
		return errorStyle.Render("could not load notifications: " + err.Error())
	}

	items := f.Items()
	if len(items) == 0 {
		return readStyle.Render("no notifications yet")
	}

	lines := make([]string, 0, len(items))
	for i, n := range items {
		prefix := "  "
		if i == a.cursor {
			prefix = cursorStyle.Render("> ")
		}

		text := n.Message
		if !n.CreatedAt.IsZero() {
			text = fmt.Sprintf("%s  %s", n.CreatedAt.Local().Format("Jan 02 15:04"), text)
		}

		var line string
		switch {
		case n.IsAccepted:
			line = readStyle.Render(text) + " " + acceptedStyle.Render("✓ accepted")
		case n.IsRead:
			line = readStyle.Render(text)
		default:
			line = unreadStyle.Render("● " + text)
		}
		lines = append(lines, prefix+line)
	}
	return strings.Join(lines, "\n")
}
