// Package tui renders the task queue as a single card in the terminal.
//
// It uses bubbletea: queue operations that talk to a backend run as
// commands and report back with a message, skips run inline since they
// never leave the process.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/focus/pkg/model"
	"github.com/harrisonrobin/focus/pkg/queue"
)

// TaskQueue is the part of *queue.Queue the UI drives.
type TaskQueue interface {
	Status() queue.Status
	ProjectName(projectID string) string
	Refresh(ctx context.Context) error
	CompleteCurrent(ctx context.Context) error
	SkipCurrent() bool
}

// Limits is the part of *skiplimit.Tracker the UI reads and updates.
type Limits interface {
	Remaining() int
	DailyMax() int
	SortPreference() model.SortPreference
	SetSortPreference(model.SortPreference) error
}

// Colors hands out project accent colours.
type Colors interface {
	Color(projectID string) string
}

type refreshDoneMsg struct{ err error }

type completeDoneMsg struct{ err error }

// App is the bubbletea model.
type App struct {
	ctx    context.Context
	queue  TaskQueue
	limits Limits
	colors Colors

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	status     queue.Status
	notice     string
	completing bool
	width      int
}

// NewApp builds the model. colors may be nil.
func NewApp(ctx context.Context, q TaskQueue, limits Limits, colors Colors) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &App{
		ctx:     ctx,
		queue:   q,
		limits:  limits,
		colors:  colors,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		status:  q.Status(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.refreshCmd())
}

func (a *App) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: a.queue.Refresh(a.ctx)}
	}
}

func (a *App) completeCmd() tea.Cmd {
	return func() tea.Msg {
		return completeDoneMsg{err: a.queue.CompleteCurrent(a.ctx)}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case refreshDoneMsg:
		if errors.Is(msg.err, queue.ErrRefreshInProgress) {
			return a, nil
		}
		a.status = a.queue.Status()
		return a, nil

	case completeDoneMsg:
		a.completing = false
		a.status = a.queue.Status()
		if msg.err != nil {
			a.notice = "Could not complete task: " + a.status.Message
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Complete):
		if a.status.State != queue.StateHasCurrent || a.completing {
			return a, nil
		}
		a.completing = true
		a.notice = ""
		return a, a.completeCmd()

	case key.Matches(msg, a.keys.Skip):
		if a.status.State != queue.StateHasCurrent || a.completing {
			return a, nil
		}
		if a.queue.SkipCurrent() {
			a.notice = ""
		} else {
			a.notice = fmt.Sprintf("Daily skip limit reached (%d per day). Complete this one or come back tomorrow.",
				a.limits.DailyMax())
		}
		a.status = a.queue.Status()
		return a, nil

	case key.Matches(msg, a.keys.Refresh):
		return a.startRefresh("")

	case key.Matches(msg, a.keys.Sort):
		pref := a.limits.SortPreference().Toggle()
		if err := a.limits.SetSortPreference(pref); err != nil {
			a.notice = "Could not save sort preference: " + err.Error()
			return a, nil
		}
		return a.startRefresh("Sorting: " + pref.Label())
	}
	return a, nil
}

func (a *App) startRefresh(notice string) (tea.Model, tea.Cmd) {
	if a.completing || a.status.State == queue.StateLoading {
		return a, nil
	}
	a.notice = notice
	a.status.State = queue.StateLoading
	return a, tea.Batch(a.spinner.Tick, a.refreshCmd())
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("focus"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  ·  %s  ·  skips %d/%d",
		a.limits.SortPreference().Label(), a.limits.Remaining(), a.limits.DailyMax())))
	b.WriteString("\n\n")

	switch a.status.State {
	case queue.StateLoading:
		b.WriteString(a.spinner.View() + " Loading tasks...")
	case queue.StateError:
		b.WriteString(errorStyle.Render("Something went wrong"))
		b.WriteString("\n" + a.status.Message + "\n\n")
		b.WriteString(mutedStyle.Render("Press r to try again."))
	case queue.StateAllDone:
		b.WriteString(doneStyle.Render("All done!"))
		b.WriteString("\n" + mutedStyle.Render("Every task is complete. Press r to check for new ones."))
	case queue.StateHasCurrent:
		b.WriteString(a.renderCard())
	}

	if a.notice != "" {
		b.WriteString("\n\n" + noticeStyle.Render(a.notice))
	}
	b.WriteString("\n\n" + a.help.View(a.keys))
	return b.String()
}

func (a *App) renderCard() string {
	t := a.status.Current
	if t == nil {
		return ""
	}

	color := "39"
	if a.colors != nil {
		color = a.colors.Color(t.ProjectID)
	}

	var body strings.Builder
	body.WriteString(projectStyle(color).Render(a.queue.ProjectName(t.ProjectID)))
	body.WriteString("\n\n")
	body.WriteString(titleStyle.Render(t.Content))
	if how := t.Explanation(); how != "" {
		body.WriteString("\n\n" + how)
	}
	body.WriteString("\n\n")
	if d, ok := t.EstimatedDuration(); ok {
		body.WriteString(mutedStyle.Render(fmt.Sprintf("~%d min", d)))
	} else {
		body.WriteString(mutedStyle.Render("no estimate"))
	}
	body.WriteString(mutedStyle.Render(fmt.Sprintf("  ·  %d pending", a.status.Pending)))
	if a.completing {
		body.WriteString("\n" + a.spinner.View() + " Completing...")
	}

	return cardStyle.BorderForeground(lipgloss.Color(color)).Render(body.String())
}
