// Package console is the farmer's terminal client: login, the order and
// payment inboxes with live updates, and payment acceptance.
package console

import (
	"context"
	"errors"
	"time"

	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/notification"
	"farm-to-keells/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 15 * time.Second

// Authenticator checks farmer credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, *farmer.Farmer, error)
}

type Deps struct {
	Auth          Authenticator
	Notifications notification.Source
	Live          notification.LiveSource
	Session       *session.Context
}

type screen int

const (
	screenLogin screen = iota
	screenInbox
)

var tabs = []notification.Category{notification.CategoryOrder, notification.CategoryPayment}

type loginDoneMsg struct {
	farmer *farmer.Farmer
	err    error
}

type feedLoadedMsg struct {
	feed *notification.Feed
	err  error
}

type feedChangedMsg struct{}

type actionDoneMsg struct {
	feed   *notification.Feed
	status string
	err    error
}

// App is the bubbletea model. Every store call runs as a tea.Cmd and reports
// back through a message.
type App struct {
	deps   Deps
	screen screen
	width  int
	height int

	username textinput.Model
	password textinput.Model
	focus    int
	spinner  spinner.Model
	busy     bool

	feeds     []*notification.Feed
	tab       int
	cursor    int
	changes   chan struct{}
	listening bool

	status string
	err    error
}

func New(deps Deps) *App {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		deps:     deps,
		screen:   screenLogin,
		username: username,
		password: password,
		spinner:  sp,
		changes:  make(chan struct{}, 1),
	}
	deps.Session.OnLogout(a.closeFeeds)
	if deps.Session.IsLoggedIn() {
		a.screen = screenInbox
	}
	return a
}

func (a *App) Init() tea.Cmd {
	if a.screen == screenInbox {
		return a.openFeeds()
	}
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.closeFeeds()
			return a, tea.Quit
		}
		if a.screen == screenLogin {
			return a.updateLogin(msg)
		}
		return a.updateInbox(msg)

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loginDoneMsg:
		return a.handleLogin(msg)

	case feedLoadedMsg:
		if !a.ownsFeed(msg.feed) {
			return a, nil
		}
		a.clampCursor()
		return a, nil

	case feedChangedMsg:
		a.clampCursor()
		return a, waitForChange(a.changes)

	case actionDoneMsg:
		a.busy = false
		if !a.ownsFeed(msg.feed) {
			return a, nil
		}
		a.err = msg.err
		if msg.err == nil {
			a.status = msg.status
		} else {
			a.status = ""
		}
		a.clampCursor()
		return a, nil
	}

	if a.screen == screenLogin {
		return a.updateInputs(msg)
	}
	return a, nil
}

func (a *App) handleLogin(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.err = msg.err
		if errors.Is(msg.err, farmer.ErrInvalidCredentials) {
			a.err = errors.New("invalid username or password")
		}
		return a, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := a.deps.Session.Login(ctx, msg.farmer); err != nil {
		a.status = "signed in, but the session could not be saved"
	} else {
		a.status = "signed in"
	}

	a.err = nil
	a.password.SetValue("")
	a.screen = screenInbox
	a.tab, a.cursor = 0, 0
	return a, a.openFeeds()
}

// openFeeds mounts one feed per tab for the current farmer.
func (a *App) openFeeds() tea.Cmd {
	current := a.deps.Session.Current()
	if current == nil {
		a.screen = screenLogin
		return nil
	}
	owner := current.ID

	a.closeFeeds()
	a.feeds = make([]*notification.Feed, len(tabs))
	cmds := make([]tea.Cmd, 0, len(tabs)+1)
	for i, c := range tabs {
		f := notification.NewFeed(a.deps.Notifications, a.deps.Live, &owner, c, a.signalChange)
		f.Subscribe()
		a.feeds[i] = f
		cmds = append(cmds, loadFeed(f))
	}
	if !a.listening {
		a.listening = true
		cmds = append(cmds, waitForChange(a.changes))
	}
	return tea.Batch(cmds...)
}

func (a *App) closeFeeds() {
	for _, f := range a.feeds {
		f.Close()
	}
	a.feeds = nil
}

func (a *App) ownsFeed(f *notification.Feed) bool {
	for _, own := range a.feeds {
		if own == f {
			return true
		}
	}
	return false
}

// signalChange runs on hub goroutines.
func (a *App) signalChange() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

func (a *App) activeFeed() *notification.Feed {
	if a.tab < 0 || a.tab >= len(a.feeds) {
		return nil
	}
	return a.feeds[a.tab]
}

func (a *App) selected() (notification.Notification, bool) {
	f := a.activeFeed()
	if f == nil {
		return notification.Notification{}, false
	}
	items := f.Items()
	if a.cursor < 0 || a.cursor >= len(items) {
		return notification.Notification{}, false
	}
	return items[a.cursor], true
}

func (a *App) clampCursor() {
	f := a.activeFeed()
	if f == nil {
		a.cursor = 0
		return
	}
	n := len(f.Items())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func loadFeed(f *notification.Feed) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return feedLoadedMsg{feed: f, err: f.Load(ctx)}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return feedChangedMsg{}
	}
}

func runAction(f *notification.Feed, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := fn(ctx)
		return actionDoneMsg{feed: f, status: status, err: err}
	}
}

func (a *App) login(username, password string) tea.Cmd {
	auth := a.deps.Auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, f, err := auth.Login(ctx, username, password)
		return loginDoneMsg{farmer: f, err: err}
	}
}
