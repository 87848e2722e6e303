package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farm-to-keells/internal/notification"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		a.setFocus(1 - a.focus)
		return a, nil

	case "enter":
		if a.focus == 0 {
			a.setFocus(1)
			return a, nil
		}
		if a.busy {
			return a, nil
		}
		username := strings.TrimSpace(a.username.Value())
		password := a.password.Value()
		if username == "" || password == "" {
			a.err = errEmptyLogin
			return a, nil
		}
		a.busy = true
		a.err = nil
		return a, tea.Batch(a.login(username, password), a.spinner.Tick)

	case "esc":
		return a, tea.Quit
	}
	return a.updateInputs(msg)
}

var errEmptyLogin = errors.New("enter your username and password")

func (a *App) setFocus(i int) {
	a.focus = i
	if i == 0 {
		a.username.Focus()
		a.password.Blur()
	} else {
		a.password.Focus()
		a.username.Blur()
	}
}

func (a *App) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.focus == 0 {
		a.username, cmd = a.username.Update(msg)
	} else {
		a.password, cmd = a.password.Update(msg)
	}
	return a, cmd
}

func (a *App) updateInbox(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := a.activeFeed()

	switch msg.String() {
	case "q":
		a.closeFeeds()
		return a, tea.Quit

	case "tab", "right", "l":
		a.switchTab(a.tab + 1)
	case "shift+tab", "left", "h":
		a.switchTab(a.tab - 1)

	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		a.cursor++
		a.clampCursor()

	case "g":
		if f != nil {
			a.status = "refreshing…"
			return a, loadFeed(f)
		}

	case "r":
		n, ok := a.selected()
		if !ok || n.IsRead {
			return a, nil
		}
		return a, runAction(f, func(ctx context.Context) (string, error) {
			return "marked as read", f.MarkRead(ctx, n.ID)
		})

	case "R":
		if f == nil || f.UnreadCount() == 0 {
			return a, nil
		}
		return a, runAction(f, func(ctx context.Context) (string, error) {
			return "all marked as read", f.MarkAllRead(ctx)
		})

	case "d":
		n, ok := a.selected()
		if !ok {
			return a, nil
		}
		return a, runAction(f, func(ctx context.Context) (string, error) {
			return "notification deleted", f.Remove(ctx, n.ID)
		})

	case "a":
		n, ok := a.selected()
		if !ok || f.Category() != notification.CategoryPayment || n.IsAccepted || a.busy {
			return a, nil
		}
		a.busy = true
		a.status = "accepting payment…"
		return a, tea.Batch(runAction(f, func(ctx context.Context) (string, error) {
			_, err := f.AcceptPayment(ctx, n.ID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("payment of $%s accepted", notification.ExtractPaymentAmount(n.Message)), nil
		}), a.spinner.Tick)

	case "L":
		if err := a.deps.Session.Logout(); err != nil {
			a.err = fmt.Errorf("logged out, but the saved session could not be removed: %w", err)
		} else {
			a.err = nil
		}
		a.screen = screenLogin
		a.status = "logged out"
		a.setFocus(0)
		return a, textinput.Blink
	}
	return a, nil
}

func (a *App) switchTab(i int) {
	n := len(tabs)
	a.tab = ((i % n) + n) % n
	a.cursor = 0
}
