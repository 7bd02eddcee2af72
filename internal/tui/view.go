package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/basket/internal/store"
)

// row is one rendered line: an item plus the category metadata it shows.
type row struct {
	Category string
	Name     string
	Count    int
	Bought   bool
	Icon     string
	Colour   string
}

// Implement list.Item
func (r row) FilterValue() string { return r.Category + " " + r.Name }

func (r row) key() string { return r.Category + "\x00" + r.Name }

// listView re-derives its rows from the store whenever the store notifies.
type listView struct {
	st      *store.Store
	showAll bool
	rows    []row
	dirty   bool
	updates int
}

func newListView(st *store.Store) *listView {
	return &listView{st: st}
}

// Update implements observer.Observer.
func (v *listView) Update() {
	v.rows = v.rows[:0]
	for _, cat := range v.st.Categories() {
		info, _ := v.st.CategoryInfo(cat)
		names := v.st.ActiveItems(cat)
		if v.showAll {
			names = v.st.Items(cat)
		}
		for _, name := range names {
			v.rows = append(v.rows, row{
				Category: cat,
				Name:     name,
				Count:    v.st.Count(cat, name),
				Bought:   v.st.Bought(cat, name),
				Icon:     info.Icon,
				Colour:   info.Colour,
			})
		}
	}
	v.dirty = true
	v.updates++
}

func (v *listView) items() []list.Item {
	out := make([]list.Item, len(v.rows))
	for i, r := range v.rows {
		out[i] = r
	}
	return out
}

// Custom delegate to control how rows render (single line)
type rowDelegate struct{}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(row)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(r, index == m.Index()))
}

func renderRow(r row, selected bool) string {
	box := mutedStyle.Render(boxUnchecked)
	name := r.Name
	if r.Bought {
		box = successStyle.Render(boxChecked)
		name = boughtStyle.Render(name)
	}
	count := accentStyle.Render(fmt.Sprintf("×%d", r.Count))
	if r.Count == 0 {
		count = mutedStyle.Render("×0")
		name = mutedStyle.Render(r.Name)
	}
	label := categoryStyle(r.Colour).Render(r.Category)
	if r.Icon != "" {
		label = r.Icon + " " + label
	}

	prefix := "  "
	if selected {
		prefix = selectedStyle.Render("> ")
	}
	return fmt.Sprintf("%s%s %s %s  %s", prefix, box, name, count, label)
}
