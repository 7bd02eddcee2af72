// Package tui is the interactive shopping list.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/basket/internal/model"
	"github.com/idilsaglam/basket/internal/store"
)

// Options tune the interactive list.
type Options struct {
	ShowAll bool // include zero-count items
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeSetCount
)

type keyMap struct {
	toggle, inc, dec, one, zero, remove, add, set, move, undo, redo, all key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "bought")),
		inc:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more")),
		dec:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less")),
		one:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "just one")),
		zero:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "none")),
		remove: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		set:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "set count")),
		move:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		undo:   key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		redo:   key.NewBinding(key.WithKeys("r", "ctrl+y"), key.WithHelp("r", "redo")),
		all:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "show all")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.toggle, k.inc, k.dec, k.one, k.zero, k.remove, k.add, k.set, k.move, k.undo, k.redo, k.all}
}

type modelTUI struct {
	st     *store.Store
	view   *listView
	cancel func()
	keys   keyMap
	list   list.Model

	mode     mode
	ti       textinput.Model
	category int // index into the category table while adding
	status   string
	width    int
	height   int
}

func newModel(st *store.Store, opt Options) modelTUI {
	keys := newKeyMap()

	l := list.New(nil, rowDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{keys.add, keys.undo, keys.redo} }
	l.AdditionalFullHelpKeys = keys.bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := modelTUI{
		st:   st,
		view: newListView(st),
		keys: keys,
		list: l,
		ti:   ti,
	}
	m.view.showAll = opt.ShowAll
	// Subscribe renders the first frame.
	m.cancel = st.Subscribe(m.view)
	m.resize()
	m.sync()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(st *store.Store, opt Options) error {
	m := newModel(st, opt)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// sync copies freshly derived rows into the list, keeping the cursor on the
// same item when it is still visible.
func (m *modelTUI) sync() tea.Cmd {
	m.list.Title = m.title()
	if !m.view.dirty {
		return nil
	}
	m.view.dirty = false

	var keep string
	if r, ok := m.list.SelectedItem().(row); ok {
		keep = r.key()
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(m.view.items())
	for i, r := range m.view.rows {
		if r.key() == keep {
			idx = i
			break
		}
	}
	if n := len(m.view.rows); idx >= n {
		idx = n - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	return cmd
}

func (m modelTUI) title() string {
	bought, active := m.st.Totals()
	undo, redo := mutedStyle.Render("↶"), mutedStyle.Render("↷")
	if m.st.CanUndo() {
		undo = accentStyle.Render("↶")
	}
	if m.st.CanRedo() {
		redo = accentStyle.Render("↷")
	}
	return fmt.Sprintf("%s   %s %d  %s %d   %s %s",
		titleStyle.Render("Basket"),
		successStyle.Render("✔"), bought,
		pendingStyle.Render("•"), active-bought,
		undo, redo,
	)
}

func (m modelTUI) selected() (row, bool) {
	r, ok := m.list.SelectedItem().(row)
	return r, ok
}

// Update and View implement Bubble Tea's Model on modelTUI
func (m modelTUI) Init() tea.Cmd { return nil }

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
		m.resize()
		return m, nil
	}

	switch m.mode {
	case modeAdd, modeSetCount:
		return m.updatePrompt(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	m.status = ""
	r, hasRow := m.selected()
	var err error
	switch {
	case keyMsg.String() == "q" || (keyMsg.String() == "esc" && m.list.FilterState() == list.Unfiltered):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.undo):
		if !m.st.Undo() {
			m.status = "nothing to undo"
		}
	case key.Matches(keyMsg, m.keys.redo):
		if !m.st.Redo() {
			m.status = "nothing to redo"
		}
	case key.Matches(keyMsg, m.keys.all):
		m.view.showAll = !m.view.showAll
		m.view.Update()
	case key.Matches(keyMsg, m.keys.add):
		m.startPrompt(modeAdd, "Milk 2", "")
		if hasRow {
			m.category = m.categoryIndex(r.Category)
		}
		return m, textinput.Blink
	case key.Matches(keyMsg, m.keys.set) && hasRow:
		m.startPrompt(modeSetCount, "count", strconv.Itoa(r.Count))
		return m, textinput.Blink
	case key.Matches(keyMsg, m.keys.toggle) && hasRow:
		err = m.st.ToggleBought(r.Category, r.Name)
	case key.Matches(keyMsg, m.keys.inc) && hasRow:
		err = m.st.IncrementCount(r.Category, r.Name)
	case key.Matches(keyMsg, m.keys.dec) && hasRow:
		err = m.st.DecrementCount(r.Category, r.Name)
	case key.Matches(keyMsg, m.keys.one) && hasRow:
		err = m.st.SetCountToOne(r.Category, r.Name)
	case key.Matches(keyMsg, m.keys.zero) && hasRow:
		err = m.st.ResetCount(r.Category, r.Name)
	case key.Matches(keyMsg, m.keys.remove) && hasRow:
		err = m.st.RemoveItem(r.Category, r.Name)
	case key.Matches(keyMsg, m.keys.move) && hasRow:
		err = m.st.MoveCategory(r.Category, m.nextCategory(r.Category), r.Name)
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	if err != nil {
		m.status = errorText(err)
	}
	return m, m.sync()
}

func (m *modelTUI) startPrompt(md mode, placeholder, value string) {
	m.mode = md
	m.status = ""
	m.ti.Placeholder = placeholder
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	m.ti.Focus()
	m.resize()
}

func (m *modelTUI) endPrompt() {
	m.mode = modeBrowse
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m modelTUI) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if x, ok := msg.(tea.KeyMsg); ok {
		switch x.String() {
		case "esc":
			m.endPrompt()
			return m, nil
		case "tab":
			if m.mode == modeAdd {
				m.category = (m.category + 1) % len(m.categoryNames())
			}
			return m, nil
		case "shift+tab":
			if m.mode == modeAdd {
				n := len(m.categoryNames())
				m.category = (m.category + n - 1) % n
			}
			return m, nil
		case "enter":
			if done := m.submitPrompt(); done {
				m.endPrompt()
			}
			return m, m.sync()
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

// submitPrompt applies the prompt value. It reports false when the input is
// invalid and the prompt should stay open.
func (m *modelTUI) submitPrompt() bool {
	value := strings.TrimSpace(m.ti.Value())
	m.status = ""
	switch m.mode {
	case modeAdd:
		name, qty, err := ParseAddInput(value)
		if err != nil {
			m.status = errorText(err)
			return false
		}
		cat := m.categoryNames()[m.category]
		if err := m.st.AddItemCount(cat, name, qty); err != nil {
			m.status = errorText(err)
			return false
		}
	case modeSetCount:
		r, ok := m.selected()
		if !ok {
			return true
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			m.status = errorText(fmt.Errorf("count must be a whole number ≥ 0"))
			return false
		}
		if err := m.st.SetCount(r.Category, r.Name, n); err != nil {
			m.status = errorText(err)
			return false
		}
	}
	return true
}

// ParseAddInput splits "Olive Oil 2" into a name and a quantity. Without a
// trailing number the quantity is 1.
func ParseAddInput(s string) (string, int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", 0, fmt.Errorf("name cannot be empty")
	}
	qty := 1
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			if n <= 0 {
				return "", 0, fmt.Errorf("quantity must be at least 1")
			}
			qty = n
			fields = fields[:len(fields)-1]
		}
	}
	return strings.Join(fields, " "), qty, nil
}

// categoryNames is the static table followed by any ad-hoc categories.
func (m modelTUI) categoryNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, info := range m.st.CategoryInfos() {
		names = append(names, info.Name)
		seen[info.Name] = true
	}
	for _, c := range m.st.Categories() {
		if !seen[c] {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		names = []string{model.DefaultCategories[len(model.DefaultCategories)-1].Name}
	}
	return names
}

func (m modelTUI) categoryIndex(name string) int {
	for i, n := range m.categoryNames() {
		if n == name {
			return i
		}
	}
	return 0
}

func (m modelTUI) nextCategory(name string) string {
	names := m.categoryNames()
	return names[(m.categoryIndex(name)+1)%len(names)]
}

func errorText(err error) string {
	switch {
	case errors.Is(err, store.ErrItemExists):
		return "already in that category"
	case errors.Is(err, store.ErrNotFound):
		return "item is gone"
	}
	return err.Error()
}

func (m *modelTUI) resize() {
	w, h := m.width, m.height
	if w == 0 || h == 0 {
		w, h = 80, 24
	}
	listHeight := h - 4
	if m.mode != modeBrowse {
		listHeight = h - 7
	}
	if m.status != "" {
		listHeight--
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(w-4, listHeight)
}

func (m modelTUI) View() string {
	content := m.list.View()
	if m.mode != modeBrowse {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Set count"
		if m.mode == modeAdd {
			cat := m.categoryNames()[m.category]
			info, _ := m.st.CategoryInfo(cat)
			label := categoryStyle(info.Colour).Render(cat)
			if info.Icon != "" {
				label = info.Icon + " " + label
			}
			title = "Add to " + label + mutedStyle.Render("  (tab: category)")
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		content += "\n" + errorStyle.Render(m.status)
	}
	return panelString(content)
}
