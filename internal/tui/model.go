// Package tui is an interactive terminal browser over a search session.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kailas-cloud/modelsearch/internal/domain/filter"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	sessionuc "github.com/kailas-cloud/modelsearch/internal/usecase/session"
)

// limitStep is how much +/- change the result cap.
const limitStep = 10

// downloadSteps are the lower bounds cycled by the "d" key.
var downloadSteps = []int64{0, 1_000, 10_000, 100_000, 1_000_000}

// sortCycle is the order the "s" key walks through.
var sortCycle = []filter.SortMode{filter.SortRelevance, filter.SortDownloadsDesc, filter.SortDownloadsAsc}

type focus int

const (
	focusInput focus = iota
	focusResults
	focusDetail
)

// searchDoneMsg is sent when an async backend call completes.
type searchDoneMsg struct {
	seq     uint64
	applied bool
	err     error
}

// Model is the Bubble Tea model for the result browser.
type Model struct {
	session *sessionuc.Session
	timeout time.Duration
	host    string

	input  textinput.Model
	focus  focus
	snap   sessionuc.Snapshot
	cursor int // index into snap.Items
	notice string

	// seq is the latest ticket issued by this model; older responses are ignored.
	seq uint64

	width  int
	height int
}

// NewModel creates a browser over s. profileHost prefixes item links;
// timeout bounds each backend call (0 = none).
func NewModel(s *sessionuc.Session, profileHost string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "search models, e.g. small multilingual embedding model"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		session: s,
		timeout: timeout,
		host:    profileHost,
		input:   ti,
		focus:   focusInput,
		snap:    s.Snapshot(),
	}
}

// WithQuery pre-fills the input so that Init submits it immediately.
func (m Model) WithQuery(q string) Model {
	m.input.SetValue(q)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.input.Value() != "" {
		return func() tea.Msg { return submitMsg{} }
	}
	return textinput.Blink
}

// submitMsg triggers a search of the current input through Update.
type submitMsg struct{}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case submitMsg:
		return m, m.submit()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusDetail:
		if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter || msg.String() == "q" {
			m.snap, _ = m.session.Select("")
			m.focus = focusResults
		}
		return m, nil
	default:
		return m.handleResultsKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		return m, m.submit()
	case tea.KeyTab:
		if len(m.snap.Items) > 0 {
			m.input.Blur()
			m.focus = focusResults
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyTab:
		m.focus = focusInput
		return m, m.input.Focus()
	case tea.KeyUp:
		m.moveCursor(-1)
		return m, nil
	case tea.KeyDown:
		m.moveCursor(1)
		return m, nil
	case tea.KeyEnter:
		if it, ok := m.current(); ok {
			m.snap, _ = m.session.Select(it.ID())
			m.focus = focusDetail
		}
		return m, nil
	}

	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "/":
		m.focus = focusInput
		return m, m.input.Focus()
	case "k":
		m.moveCursor(-1)
	case "j":
		m.moveCursor(1)
	case "s":
		m.apply(m.session.SetSort(nextSort(m.snap.Filter.Sort())))
	case "+", "=":
		snap, err := m.session.SetLimit(m.snap.Filter.Limit() + limitStep)
		m.applyErr(snap, err)
	case "-":
		snap, err := m.session.SetLimit(max(1, m.snap.Filter.Limit()-limitStep))
		m.applyErr(snap, err)
	case "d":
		low := m.nextDownloadFloor()
		snap, err := m.session.SetDownloadBounds(&low, nil)
		m.applyErr(snap, err)
	case "c":
		m.apply(m.session.ClearFilters())
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if tags := m.snap.Facets.AvailableTags; i < len(tags) {
			m.apply(m.session.ToggleTag(tags[i]))
		}
	}
	return m, nil
}

func (m Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq || !msg.applied {
		return m, nil
	}
	m.snap = m.session.Snapshot()
	m.cursor = 0
	m.notice = ""
	if m.snap.Err == "" && len(m.snap.Items) > 0 && m.focus == focusInput {
		m.input.Blur()
		m.focus = focusResults
	}
	return m, nil
}

// submit issues a ticket and returns the command running it.
func (m *Model) submit() tea.Cmd {
	t, err := m.session.Begin(m.input.Value())
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.seq = t.Seq
	m.notice = ""
	m.snap = m.session.Snapshot()

	s, timeout := m.session, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		applied, err := s.Run(ctx, t)
		return searchDoneMsg{seq: t.Seq, applied: applied, err: err}
	}
}

func (m *Model) apply(snap sessionuc.Snapshot) {
	m.snap = snap
	m.notice = ""
	m.clampCursor()
}

func (m *Model) applyErr(snap sessionuc.Snapshot, err error) {
	m.apply(snap)
	if err != nil {
		m.notice = err.Error()
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.snap.Items)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor, 0), n-1)
}

// current returns the item under the cursor in display order.
func (m Model) current() (item.Item, bool) {
	order := m.displayOrder()
	if m.cursor < 0 || m.cursor >= len(order) {
		return item.Item{}, false
	}
	return order[m.cursor], true
}

// displayOrder flattens groups the way they are rendered.
func (m Model) displayOrder() []item.Item {
	out := make([]item.Item, 0, len(m.snap.Items))
	for _, g := range m.snap.Groups {
		out = append(out, g.Group.Items()...)
	}
	return out
}

func (m Model) nextDownloadFloor() int64 {
	cur := m.snap.Filter.Downloads().Low
	top := m.snap.Facets.MaxDownloads
	for _, step := range downloadSteps {
		if step > cur && step <= top {
			return step
		}
	}
	return 0
}

func nextSort(cur filter.SortMode) filter.SortMode {
	for i, mode := range sortCycle {
		if mode == cur {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return filter.SortRelevance
}
