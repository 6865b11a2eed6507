// Package teaui hosts the Bubble Tea program for the declist journal.
package teaui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/entry"
	"tableflip.dev/declist/pkg/journal"
	"tableflip.dev/declist/pkg/list"
	"tableflip.dev/declist/pkg/metrics"
	"tableflip.dev/declist/pkg/store"
	"tableflip.dev/declist/pkg/tui/components/sectionlist"
	"tableflip.dev/declist/pkg/tui/theme"
)

// Options tune the program.
type Options struct {
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	FlashDuration time.Duration
	SingleFlight  bool
}

type entriesLoadedMsg struct {
	entries []*entry.Entry
}

type watchStartedMsg struct {
	ch     <-chan store.Event
	cancel context.CancelFunc
	err    error
}

type watchEventMsg struct {
	event store.Event
}

type watchStoppedMsg struct{}

type errMsg struct {
	err error
}

// Model shows every collection of the journal and keeps it in sync with the
// store.
type Model struct {
	ctx   context.Context
	store store.Persistence
	log   *zap.Logger

	list *sectionlist.Model
	ctrl *list.Controller[any]

	entries []*entry.Entry
	pending []tea.Cmd
	status  string

	watchCh     <-chan store.Event
	watchCancel context.CancelFunc

	theme theme.Theme

	input  textinput.Model
	adding bool
	addTo  string

	termWidth  int
	termHeight int
}

// New builds the program model. Rows are loaded by Init.
func New(ctx context.Context, p store.Persistence, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	flash := opts.FlashDuration
	if flash == 0 {
		flash = sectionlist.DefaultFlashDuration
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = "> "

	m := &Model{ctx: ctx, store: p, log: log, theme: theme.Default(), input: ti}
	m.list = sectionlist.New(
		sectionlist.WithLogger(log.Named("list")),
		sectionlist.WithTheme(m.theme.List),
		sectionlist.WithFlashDuration(flash),
		sectionlist.WithActions(sectionlist.ActionBinding{
			Binding: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
			Action:  journal.ActionDelete,
		}),
	)

	ctrlOpts := []list.Option{list.WithLogger(log.Named("controller"))}
	if opts.Metrics != nil {
		ctrlOpts = append(ctrlOpts, list.WithMetrics(opts.Metrics))
	}
	if opts.SingleFlight {
		ctrlOpts = append(ctrlOpts, list.WithSingleFlight())
	}
	m.ctrl = list.New[any](m.list, nil, ctrlOpts...)
	m.list.Bind(m.ctrl)
	m.list.Focus()
	return m
}

// Init loads the journal and starts watching the store.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), startWatchCmd(m.ctx, m.store))
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return entriesLoadedMsg{entries: m.store.ListAll(m.ctx)}
	}
}

func startWatchCmd(parent context.Context, p store.Persistence) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)
		ch, err := p.Watch(ctx)
		if err != nil {
			cancel()
			return watchStartedMsg{err: err}
		}
		return watchStartedMsg{ch: ch, cancel: cancel}
	}
}

func (m *Model) waitForWatch() tea.Cmd {
	if m.watchCh == nil {
		return nil
	}
	ch := m.watchCh
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return watchEventMsg{event: ev}
		}
		return watchStoppedMsg{}
	}
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchCh = nil
}

func (m *Model) handlers() journal.Handlers {
	return journal.Handlers{
		Toggle: func(e *entry.Entry) {
			updated := *e
			updated.Toggle()
			m.pending = append(m.pending, m.persist(func() error {
				return m.store.Store(&updated)
			}))
		},
		Delete: func(e *entry.Entry) {
			target := *e
			m.pending = append(m.pending, m.persist(func() error {
				return m.store.Delete(&target)
			}))
		},
	}
}

// persist runs write and reloads the journal. The watcher reloads as well,
// the second reload reconciles to nothing.
func (m *Model) persist(write func() error) tea.Cmd {
	return func() tea.Msg {
		if err := write(); err != nil {
			return errMsg{err: err}
		}
		return entriesLoadedMsg{entries: m.store.ListAll(m.ctx)}
	}
}

// Update routes store results to the controller and everything else to the
// list.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	forward := false

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
	case tea.KeyPressMsg:
		if m.adding {
			cmds = append(cmds, m.updateInput(msg))
			break
		}
		switch msg.String() {
		case "a":
			cmds = append(cmds, m.startAdd())
		case "q", "ctrl+c", "esc":
			m.stopWatch()
			return m, tea.Quit
		case "r":
			m.ctrl.Update(journal.Build(m.entries, m.handlers()))
			m.list.ReloadAll()
		default:
			forward = true
		}
	case entriesLoadedMsg:
		m.entries = msg.entries
		m.ctrl.Update(journal.Build(m.entries, m.handlers()))
		m.status = fmt.Sprintf("%d entries", len(m.entries))
	case watchStartedMsg:
		if msg.err != nil {
			m.log.Warn("store watch unavailable", zap.Error(msg.err))
			m.status = "watch: " + msg.err.Error()
			break
		}
		m.watchCh = msg.ch
		m.watchCancel = msg.cancel
		cmds = append(cmds, m.waitForWatch())
	case watchEventMsg:
		cmds = append(cmds, m.load(), m.waitForWatch())
	case watchStoppedMsg:
		m.watchCh = nil
	case errMsg:
		m.log.Error("store", zap.Error(msg.err))
		m.status = "ERR: " + msg.err.Error()
	default:
		forward = true
	}

	if forward {
		_, cmd := m.list.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		cmds = append(cmds, m.list.Cmd())
	}
	cmds = append(cmds, m.pending...)
	m.pending = nil
	return m, tea.Batch(cmds...)
}

// DefaultCollection receives entries added while nothing is selected.
const DefaultCollection = "Inbox"

func (m *Model) selectedCollection() string {
	section, _, ok := m.list.Selected()
	if !ok {
		return DefaultCollection
	}
	item, ok := m.ctrl.DescriptorAt(section, 0)
	if !ok {
		return DefaultCollection
	}
	if h, ok := item.Model.(journal.Heading); ok {
		return h.Collection
	}
	return DefaultCollection
}

func (m *Model) startAdd() tea.Cmd {
	m.adding = true
	m.addTo = m.selectedCollection()
	m.input.Placeholder = "New entry in " + m.addTo
	m.input.SetValue("")
	m.list.Blur()
	return m.input.Focus()
}

func (m *Model) stopAdd() {
	m.adding = false
	m.input.Blur()
	m.input.SetValue("")
	m.list.Focus()
}

func (m *Model) updateInput(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.stopAdd()
		return nil
	case "enter":
		message := strings.TrimSpace(m.input.Value())
		collection := m.addTo
		m.stopAdd()
		if message == "" {
			return nil
		}
		e := entry.New(collection, message)
		return m.persist(func() error {
			return m.store.Store(e)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the title, the list and the status line.
func (m *Model) View() string {
	title := m.theme.App.Title.Render("declist")
	status := m.theme.App.Status.Render(m.status)
	if m.adding {
		status = m.input.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.list.View(), status)
}

// Run starts the program on the alternate screen.
func Run(ctx context.Context, p store.Persistence, opts Options) error {
	prog := tea.NewProgram(New(ctx, p, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
