// Package sectionlist is a scrollable Bubble Tea list of sections that
// accepts batched row mutations and pulls row content from a data source.
package sectionlist

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/list"
	"tableflip.dev/declist/pkg/tui/theme"
)

// ErrUnregisteredKind is reported for rows whose slot kind has no factory.
var ErrUnregisteredKind = errors.New("sectionlist: unregistered slot kind")

// DefaultFlashDuration is how long inserted and reloaded rows stay
// highlighted.
const DefaultFlashDuration = 600 * time.Millisecond

// Source feeds the list and receives row selections and actions.
type Source interface {
	list.DataSource
	Select(section, item int) bool
	Perform(section, item int, action descriptor.Action) bool
}

// TransactionDoneMsg delivers the result of one transaction to its
// completion callback. Model.Update runs the callback.
type TransactionDoneMsg struct {
	Success bool
	done    func(bool)
}

type flashDoneMsg struct {
	generation int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for materialization and transaction
// failures.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// WithFlashDuration sets how long changed rows stay highlighted. Zero
// disables the highlight.
func WithFlashDuration(d time.Duration) Option {
	return func(m *Model) {
		m.flashFor = d
	}
}

// WithTheme replaces the default row styles.
func WithTheme(t theme.ListTheme) Option {
	return func(m *Model) {
		m.theme = t
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) {
		m.keys = k
	}
}

// WithActions adds action bindings to the key map.
func WithActions(actions ...ActionBinding) Option {
	return func(m *Model) {
		m.keys.Actions = append(m.keys.Actions, actions...)
	}
}

type row struct {
	cell Cell
	err  error
}

const (
	lineItem = iota
	lineFooter
	lineEmpty
	lineSpacer
)

type lineInfo struct {
	section int
	item    int
	kind    int
}

// Model renders the rows of a Source and implements list.Widget.
type Model struct {
	src      Source
	log      *zap.Logger
	keys     KeyMap
	help     help.Model
	theme    theme.ListTheme
	flashFor time.Duration

	kinds     map[string]string
	factories map[string]Factory

	rows    [][]row
	footers []string

	tx       *transaction
	done     []TransactionDoneMsg
	flashing map[rowKey]bool
	flashGen int
	tick     bool

	width   int
	height  int
	focused bool

	cursor      int // index into selectable, -1 when nothing selectable
	scroll      int
	lines       []lineInfo
	selectable  []int
	lineHeights []int
	lineOffsets []int
	totalHeight int
}

var _ list.Widget = (*Model)(nil)

// New constructs an empty list. Bind attaches the source rows come from.
func New(opts ...Option) *Model {
	m := &Model{
		log:       zap.NewNop(),
		keys:      DefaultKeyMap(),
		theme:     theme.Default().List,
		help:      help.New(),
		flashFor:  DefaultFlashDuration,
		kinds:     map[string]string{},
		factories: map[string]Factory{CellType: newCell},
		flashing:  map[rowKey]bool{},
		cursor:    -1,
		width:     80,
		height:    20,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind attaches src and reloads every row from it.
func (m *Model) Bind(src Source) {
	m.src = src
	m.ReloadAll()
}

// RegisterFactory makes slots of kindType available to registered kinds.
func (m *Model) RegisterFactory(kindType string, f Factory) {
	m.factories[kindType] = f
}

// RegisterSlotKind implements list.Widget.
func (m *Model) RegisterSlotKind(kindType, identifier string) {
	if prev, ok := m.kinds[identifier]; ok && prev != kindType {
		m.log.Warn("slot kind re-registered with a different type",
			zap.String("identifier", identifier),
			zap.String("previous", prev),
			zap.String("type", kindType))
	}
	m.kinds[identifier] = kindType
}

// BeginTransaction implements list.Widget. Nested transactions join the
// outermost one.
func (m *Model) BeginTransaction() {
	if m.tx != nil {
		m.tx.depth++
		return
	}
	m.tx = &transaction{depth: 1}
}

// InsertSection implements list.Widget.
func (m *Model) InsertSection(at int) { m.record(opInsertSection, at, 0) }

// DeleteSection implements list.Widget.
func (m *Model) DeleteSection(at int) { m.record(opDeleteSection, at, 0) }

// InsertItem implements list.Widget.
func (m *Model) InsertItem(section, at int) { m.record(opInsertItem, section, at) }

// DeleteItem implements list.Widget.
func (m *Model) DeleteItem(section, at int) { m.record(opDeleteItem, section, at) }

// ReloadItem implements list.Widget.
func (m *Model) ReloadItem(section, at int) { m.record(opReloadItem, section, at) }

func (m *Model) record(kind opKind, section, item int) {
	if m.tx == nil {
		m.BeginTransaction()
		m.tx.ops = append(m.tx.ops, pendingOp{kind: kind, section: section, item: item})
		m.EndTransaction(nil)
		return
	}
	m.tx.ops = append(m.tx.ops, pendingOp{kind: kind, section: section, item: item})
}

// EndTransaction implements list.Widget. The batch is validated and applied
// immediately; onComplete runs when the Model handles the TransactionDoneMsg
// produced by Cmd.
func (m *Model) EndTransaction(onComplete func(success bool)) {
	if m.tx == nil {
		m.log.Warn("end without begin")
		m.complete(false, onComplete)
		return
	}
	if onComplete != nil {
		m.tx.done = append(m.tx.done, onComplete)
	}
	m.tx.depth--
	if m.tx.depth > 0 {
		return
	}
	tx := m.tx
	m.tx = nil

	success := m.commit(tx.ops)
	if len(tx.done) == 0 {
		m.complete(success, nil)
	}
	for _, fn := range tx.done {
		m.complete(success, fn)
	}
}

func (m *Model) complete(success bool, fn func(bool)) {
	if fn == nil {
		return
	}
	m.done = append(m.done, TransactionDoneMsg{Success: success, done: fn})
}

func (m *Model) commit(ops []pendingOp) bool {
	if m.src == nil {
		m.log.Warn("transaction without a source", zap.Int("operations", len(ops)))
		return false
	}
	before := make([]int, len(m.rows))
	for i, r := range m.rows {
		before[i] = len(r)
	}
	p, err := validate(before, m.src, ops)
	if err != nil {
		m.log.Warn("rejected transaction", zap.Int("operations", len(ops)), zap.Error(err))
		return false
	}

	selected, hasSelected := m.selectedRow()
	m.reload()

	if m.flashFor > 0 {
		m.flashGen++
		m.flashing = map[rowKey]bool{}
		for _, r := range p.changed(m.src) {
			m.flashing[r] = true
		}
		m.tick = len(m.flashing) > 0
	}

	if hasSelected {
		if target, ok := p.locate(selected); ok {
			m.selectRow(target)
		}
	}
	m.clampCursor()
	m.ensureScroll()
	return true
}

// ReloadAll implements list.Widget. It rebuilds every row without
// highlighting.
func (m *Model) ReloadAll() {
	selected, hasSelected := m.selectedRow()
	m.flashing = map[rowKey]bool{}
	m.reload()
	if hasSelected {
		m.selectRow(selected)
	}
	m.clampCursor()
	m.ensureScroll()
}

// Cmd returns the pending transaction completions, in the order their
// transactions ended, followed by the highlight timer.
func (m *Model) Cmd() tea.Cmd {
	var seq []tea.Cmd
	for _, msg := range m.done {
		msg := msg
		seq = append(seq, func() tea.Msg { return msg })
	}
	m.done = nil

	var cmds []tea.Cmd
	switch len(seq) {
	case 0:
	case 1:
		cmds = append(cmds, seq[0])
	default:
		cmds = append(cmds, tea.Sequence(seq...))
	}
	if m.tick {
		m.tick = false
		gen := m.flashGen
		cmds = append(cmds, tea.Tick(m.flashFor, func(time.Time) tea.Msg {
			return flashDoneMsg{generation: gen}
		}))
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

// Flush runs pending completions synchronously, including those queued by
// the callbacks themselves.
func (m *Model) Flush() {
	for len(m.done) > 0 {
		msg := m.done[0]
		m.done = m.done[1:]
		msg.done(msg.Success)
	}
}

func (m *Model) reload() {
	m.rows = m.rows[:0]
	m.footers = m.footers[:0]
	if m.src != nil {
		for s := 0; s < m.src.NumberOfSections(); s++ {
			n := m.src.NumberOfItems(s)
			rows := make([]row, n)
			for i := range rows {
				rows[i] = m.materialize(s, i)
			}
			m.rows = append(m.rows, rows)
			m.footers = append(m.footers, m.src.Footer(s))
		}
	}
	m.rebuildLines()
}

func (m *Model) materialize(section, item int) row {
	r, err := m.configure(section, item)
	if err != nil {
		m.log.Warn("cannot materialize row",
			zap.Int("section", section),
			zap.Int("item", item),
			zap.Error(err))
		return row{cell: Cell{Symbol: "!", Title: err.Error(), Muted: true}, err: err}
	}
	return r
}

func (m *Model) configure(section, item int) (row, error) {
	kind, ok := m.src.KindAt(section, item)
	if !ok {
		return row{}, fmt.Errorf("sectionlist: no row at %d/%d", section, item)
	}
	kindType, ok := m.kinds[kind.ID]
	if !ok {
		return row{}, fmt.Errorf("%w: %s", ErrUnregisteredKind, kind.ID)
	}
	factory, ok := m.factories[kindType]
	if !ok {
		return row{}, fmt.Errorf("%w: %s has no factory for %s", ErrUnregisteredKind, kind.ID, kindType)
	}
	slot := factory()
	if err := m.src.Configure(section, item, slot); err != nil {
		return row{}, err
	}
	return row{cell: cellOf(slot)}, nil
}

// Row returns the materialized cell at the given position.
func (m *Model) Row(section, item int) (Cell, bool) {
	if section < 0 || section >= len(m.rows) || item < 0 || item >= len(m.rows[section]) {
		return Cell{}, false
	}
	return m.rows[section][item].cell, true
}

// Flashing reports whether the row is highlighted as recently changed.
func (m *Model) Flashing(section, item int) bool {
	return m.flashing[rowKey{section, item}]
}

// Selected returns the position of the row under the cursor.
func (m *Model) Selected() (section, item int, ok bool) {
	r, ok := m.selectedRow()
	return r.section, r.item, ok
}

// SetSize configures the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 20
	}
	m.width = width
	m.height = height
	m.recomputeLineMetrics()
	m.ensureScroll()
}

// Focus marks the list as active, which shows the cursor and enables keys.
func (m *Model) Focus() {
	m.focused = true
}

// Blur marks the list as inactive.
func (m *Model) Blur() {
	m.focused = false
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update handles navigation keys, completions and highlight timers.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if m.focused {
			m.handleKey(msg)
		}
	case TransactionDoneMsg:
		if msg.done != nil {
			msg.done(msg.Success)
		}
	case flashDoneMsg:
		if msg.generation == m.flashGen {
			m.flashing = map[rowKey]bool{}
		}
	}
	return m, m.Cmd()
}

func (m *Model) handleKey(msg tea.KeyPressMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, m.keys.Home):
		if len(m.selectable) > 0 {
			m.cursor = 0
			m.ensureScroll()
		}
	case key.Matches(msg, m.keys.End):
		if len(m.selectable) > 0 {
			m.cursor = len(m.selectable) - 1
			m.ensureScroll()
		}
	case key.Matches(msg, m.keys.Select):
		if r, ok := m.selectedRow(); ok && m.src != nil {
			m.src.Select(r.section, r.item)
		}
	default:
		for _, a := range m.keys.Actions {
			if !key.Matches(msg, a.Binding) {
				continue
			}
			if r, ok := m.selectedRow(); ok && m.src != nil {
				m.src.Perform(r.section, r.item, a.Action)
			}
			return
		}
	}
}

// View renders the visible rows followed by the help line.
func (m *Model) View() string {
	lines := m.renderVisibleLines()
	if m.height > 1 {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) selectedRow() (rowKey, bool) {
	if m.cursor < 0 || m.cursor >= len(m.selectable) {
		return rowKey{}, false
	}
	info := m.lines[m.selectable[m.cursor]]
	return rowKey{info.section, info.item}, true
}

func (m *Model) selectRow(r rowKey) {
	for idx, line := range m.selectable {
		info := m.lines[line]
		if info.section == r.section && info.item == r.item {
			m.cursor = idx
			return
		}
	}
}

func (m *Model) clampCursor() {
	switch {
	case len(m.selectable) == 0:
		m.cursor = -1
	case m.cursor < 0:
		m.cursor = 0
	case m.cursor >= len(m.selectable):
		m.cursor = len(m.selectable) - 1
	}
}

func (m *Model) moveCursor(delta int) {
	if len(m.selectable) == 0 {
		m.cursor = -1
		return
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.cursor += delta
	m.clampCursor()
	m.ensureScroll()
}

func (m *Model) pageSize() int {
	height := m.viewportHeight()
	if height <= 1 {
		return 1
	}
	return height - 1
}

func (m *Model) viewportHeight() int {
	if m.height <= 1 {
		return 1
	}
	// The help line takes the last row.
	return m.height - 1
}

func (m *Model) rebuildLines() {
	m.lines = m.lines[:0]
	m.selectable = m.selectable[:0]
	for s, rows := range m.rows {
		if s > 0 {
			m.lines = append(m.lines, lineInfo{section: s, kind: lineSpacer})
		}
		for i := range rows {
			m.selectable = append(m.selectable, len(m.lines))
			m.lines = append(m.lines, lineInfo{section: s, item: i, kind: lineItem})
		}
		switch {
		case m.footers[s] != "":
			m.lines = append(m.lines, lineInfo{section: s, kind: lineFooter})
		case len(rows) == 0:
			m.lines = append(m.lines, lineInfo{section: s, kind: lineEmpty})
		}
	}
	m.recomputeLineMetrics()
}

func (m *Model) recomputeLineMetrics() {
	n := len(m.lines)
	m.lineHeights = m.lineHeights[:0]
	m.lineOffsets = m.lineOffsets[:0]
	offset := 0
	for i := 0; i < n; i++ {
		h := strings.Count(m.renderLine(i, false), "\n") + 1
		m.lineHeights = append(m.lineHeights, h)
		m.lineOffsets = append(m.lineOffsets, offset)
		offset += h
	}
	m.totalHeight = offset
	m.clampScroll()
}

func (m *Model) ensureScroll() {
	if m.cursor < 0 || m.cursor >= len(m.selectable) {
		m.clampScroll()
		return
	}
	target := m.selectable[m.cursor]
	height := m.viewportHeight()
	if target < m.scroll {
		m.scroll = target
		m.clampScroll()
		return
	}
	bottom := m.lineOffsets[target] + m.lineHeights[target]
	for m.scroll < target && bottom-m.lineOffsets[m.scroll] > height {
		m.scroll++
	}
	m.clampScroll()
}

func (m *Model) clampScroll() {
	if len(m.lines) == 0 || m.scroll < 0 {
		m.scroll = 0
		return
	}
	if limit := m.maxScrollIndex(); m.scroll > limit {
		m.scroll = limit
	}
}

func (m *Model) maxScrollIndex() int {
	visible := m.viewportHeight()
	if m.totalHeight <= visible {
		return 0
	}
	maxOffset := m.totalHeight - visible
	idx := sort.Search(len(m.lineOffsets), func(i int) bool {
		return m.lineOffsets[i] >= maxOffset
	})
	if idx >= len(m.lines) {
		idx = len(m.lines) - 1
	}
	return idx
}

func (m *Model) renderVisibleLines() []string {
	height := m.viewportHeight()
	lines := make([]string, 0, height)
	active := -1
	if m.cursor >= 0 && m.cursor < len(m.selectable) {
		active = m.selectable[m.cursor]
	}
	for i := m.scroll; i < len(m.lines) && len(lines) < height; i++ {
		for _, part := range strings.Split(m.renderLine(i, i == active), "\n") {
			if len(lines) >= height {
				break
			}
			lines = append(lines, part)
		}
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (m *Model) renderLine(idx int, selected bool) string {
	info := m.lines[idx]
	switch info.kind {
	case lineItem:
		return m.renderRow(info, selected)
	case lineFooter:
		return m.theme.Footer.Render("  " + m.footers[info.section])
	case lineEmpty:
		return m.theme.Empty.Render("  <empty>")
	default:
		return ""
	}
}

func (m *Model) renderRow(info lineInfo, selected bool) string {
	r := m.rows[info.section][info.item]
	prefix := m.composePrefix(r.cell, selected && m.focused)
	prefixStyle, titleStyle := m.rowStyles(r, m.flashing[rowKey{info.section, info.item}])

	title := r.cell.Title
	if strings.TrimSpace(title) == "" {
		title = "<empty>"
	}
	lines := m.wrapLines(prefix, title)
	for i, line := range lines {
		if i == 0 {
			lines[i] = prefixStyle.Render(prefix) + titleStyle.Render(strings.TrimPrefix(line, prefix))
			continue
		}
		lines[i] = titleStyle.Render(line)
	}
	if r.cell.Note != "" {
		padding := strings.Repeat(" ", lipgloss.Width(prefix))
		for _, line := range m.wrapLines(padding, r.cell.Note) {
			lines = append(lines, m.theme.Note.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) rowStyles(r row, flash bool) (lipgloss.Style, lipgloss.Style) {
	prefixStyle := lipgloss.NewStyle()
	titleStyle := lipgloss.NewStyle()
	if r.cell.Muted {
		prefixStyle = m.theme.Muted
		titleStyle = m.theme.Muted
	}
	if r.cell.Strike {
		titleStyle = titleStyle.Strikethrough(true)
	}
	if r.err != nil {
		titleStyle = titleStyle.Inherit(m.theme.Error)
	}
	if flash {
		titleStyle = titleStyle.Inherit(m.theme.Flash)
	}
	return prefixStyle, titleStyle
}

func (m *Model) composePrefix(c Cell, selected bool) string {
	caret := " "
	if selected {
		caret = m.theme.Caret.Render("→")
	}
	symbol := c.Symbol
	if symbol == "" {
		symbol = "-"
	}
	return caret + " " + symbol + " "
}

func (m *Model) wrapLines(prefix, text string) []string {
	prefixWidth := lipgloss.Width(prefix)
	available := m.width - prefixWidth
	if available < 10 {
		available = 10
	}
	padding := strings.Repeat(" ", prefixWidth)
	lines := make([]string, 0, 2)
	for _, raw := range strings.Split(text, "\n") {
		wrapped := wordwrap.String(raw, available)
		for _, seg := range strings.Split(wrapped, "\n") {
			if len(lines) == 0 {
				lines = append(lines, prefix+seg)
				continue
			}
			lines = append(lines, padding+seg)
		}
	}
	return lines
}
