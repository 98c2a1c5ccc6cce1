// Package tui is the interactive terminal viewer over a view.Session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"countryview/internal/observability"
	"countryview/internal/view"
	"countryview/pkg/domain"
)

const (
	inputName = iota
	inputMinPopulation
	inputMaxPopulation
	inputMinArea
	inputMaxArea
	inputCount
)

// focusTable means keys go to the table rather than an input.
const focusTable = -1

// Options configures a Model.
type Options struct {
	Title   string
	Locale  language.Tag
	Status  string // initial status line, e.g. a load warning
	Logger  observability.Logger
	Metrics observability.MetricsRecorder
}

// Model is the bubbletea model. Its methods use a pointer receiver because
// the session renders into the model's table.
type Model struct {
	session *view.Session
	tbl     table.Model
	inputs  [inputCount]textinput.Model
	focus   int

	groups   []string
	groupIdx int

	locale    language.Tag
	title     string
	status    string
	statusErr bool
	notice    string
	showStats bool
	stats     string

	width  int
	height int
}

// New builds a model over master. groups are the distinct group labels
// offered by the group selector in addition to "all".
func New(master []domain.Country, groups []string, opts Options) *Model {
	m := &Model{
		focus:  focusTable,
		groups: append([]string{view.AllGroups}, groups...),
		locale: opts.Locale,
		title:  opts.Title,
		status: opts.Status,
	}
	if m.locale == language.Und {
		m.locale = language.Spanish
	}
	if m.title == "" {
		m.title = "countryview"
	}
	m.tbl = table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(20),
		table.WithStyles(tableStyles()),
	)
	placeholders := [inputCount]string{"name contains", "min population", "max population", "min area", "max area"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 64
		ti.Width = 16
		ti.Prompt = ""
		m.inputs[i] = ti
	}
	m.inputs[inputName].Width = 24
	m.session = view.NewSession(master, view.SinkFunc(m.setRows), view.Options{Logger: opts.Logger, Metrics: opts.Metrics})
	// Opens sorted by name; the next name sort goes descending.
	if _, err := m.session.Sort(view.SortName); err != nil {
		m.setError(err)
	}
	if m.status == "" {
		m.status = fmt.Sprintf("%d countries loaded", m.session.MasterLen())
	}
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func columns() []table.Column {
	widths := []int{32, 14, 12, 12}
	cols := make([]table.Column, len(view.Columns()))
	for i, title := range view.Columns() {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

func (m *Model) setRows(rows []view.Row) error {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r.Values())
	}
	m.tbl.SetRows(out)
	m.tbl.GotoTop()
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - 9
		if m.showStats {
			h -= 12
		}
		if h < 3 {
			h = 3
		}
		m.tbl.SetHeight(h)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.focus != focusTable {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab", "/":
			m.focusInput(inputName)
			return m, textinput.Blink
		case "enter":
			m.applyFilter()
			return m, nil
		case "g":
			m.groupIdx = (m.groupIdx + 1) % len(m.groups)
			return m, nil
		case "G":
			m.groupIdx = (m.groupIdx + len(m.groups) - 1) % len(m.groups)
			return m, nil
		case "1", "2", "3", "4":
			m.sortBy(view.SortKeys()[msg.Runes[0]-'1'])
			return m, nil
		case "r":
			m.reset()
			return m, nil
		case "t":
			m.toggleStats()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.blurInputs()
		m.applyFilter()
		return m, nil
	case tea.KeyEsc:
		m.blurInputs()
		return m, nil
	case tea.KeyTab:
		if m.focus == inputCount-1 {
			m.blurInputs()
			return m, nil
		}
		m.focusInput(m.focus + 1)
		return m, textinput.Blink
	case tea.KeyShiftTab:
		if m.focus == 0 {
			m.blurInputs()
			return m, nil
		}
		m.focusInput(m.focus - 1)
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusInput(i int) {
	m.blurInputs()
	m.focus = i
	m.inputs[i].Focus()
	m.tbl.Blur()
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = focusTable
	m.tbl.Focus()
}

// FilterInput returns the raw filter fields currently entered.
func (m *Model) FilterInput() view.FilterInput {
	return view.FilterInput{
		Group:         m.groups[m.groupIdx],
		Name:          m.inputs[inputName].Value(),
		MinPopulation: m.inputs[inputMinPopulation].Value(),
		MaxPopulation: m.inputs[inputMaxPopulation].Value(),
		MinArea:       m.inputs[inputMinArea].Value(),
		MaxArea:       m.inputs[inputMaxArea].Value(),
	}
}

func (m *Model) applyFilter() {
	in := m.FilterInput()
	n, err := m.session.ApplyFilter(in)
	m.notice = ""
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("%d of %d countries", n, m.session.MasterLen()))
	if n == 0 && in.Name != "" {
		m.notice = fmt.Sprintf("no countries match %q", in.Name)
	}
}

func (m *Model) sortBy(key view.SortKey) {
	dir, err := m.session.Sort(key)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("sorted by %s %s", key, dir))
}

func (m *Model) reset() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.groupIdx = 0
	m.notice = ""
	if err := m.session.Reset(); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("filters cleared, %d countries", m.session.MasterLen()))
}

func (m *Model) toggleStats() {
	if m.showStats {
		m.showStats = false
		return
	}
	st, err := m.session.Stats()
	if err != nil {
		m.setError(err)
		return
	}
	var b strings.Builder
	if err := RenderStats(&b, st, m.locale); err != nil {
		m.setError(err)
		return
	}
	m.stats = b.String()
	m.showStats = true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		m.status = "invalid input: " + err.Error()
	case errors.Is(err, domain.ErrEmptyDataset):
		m.status = "no data loaded"
	default:
		m.status = "error: " + err.Error()
	}
	m.statusErr = true
}

// Status returns the status line text.
func (m *Model) Status() string { return m.status }

// Notice returns the empty-search notice, if any.
func (m *Model) Notice() string { return m.notice }

// Rows returns the rows currently in the table.
func (m *Model) Rows() []table.Row { return m.tbl.Rows() }

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.filterBar())
	b.WriteString("\n\n")
	b.WriteString(m.tbl.View())
	b.WriteString("\n")
	if m.showStats {
		b.WriteString(panelStyle.Render(strings.TrimRight(m.stats, "\n")))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.statusErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/ fields • enter apply • g/G group • 1-4 sort name/pop/area/group • r reset • t stats • q quit"))
	return b.String()
}

func (m *Model) filterBar() string {
	field := func(i int) string {
		v := m.inputs[i].View()
		if m.focus == i {
			return activeStyle.Render("[") + v + activeStyle.Render("]")
		}
		return "[" + v + "]"
	}
	group := m.groups[m.groupIdx]
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("group "), activeStyle.Render(group),
		labelStyle.Render("  name "), field(inputName),
		labelStyle.Render("  population "), field(inputMinPopulation), " - ", field(inputMaxPopulation),
		labelStyle.Render("  area "), field(inputMinArea), " - ", field(inputMaxArea),
	)
}
