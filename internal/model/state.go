package model

// State is the whole shopping list: the unit of snapshotting.
// Categories keep insertion order.
type State struct {
	Categories []Category `json:"categories"`
}

// EmptyState returns a state with one empty category per entry in infos.
func EmptyState(infos []CategoryInfo) State {
	s := State{Categories: make([]Category, 0, len(infos))}
	for _, info := range infos {
		s.Categories = append(s.Categories, Category{Name: info.Name})
	}
	return s
}

// Clone returns a fully independent copy of s.
func (s State) Clone() State {
	if s.Categories == nil {
		return State{}
	}
	out := State{Categories: make([]Category, len(s.Categories))}
	for i, c := range s.Categories {
		out.Categories[i].Name = c.Name
		if c.Items != nil {
			out.Categories[i].Items = make([]Item, len(c.Items))
			copy(out.Categories[i].Items, c.Items)
		}
	}
	return out
}

// Equal reports whether two states hold the same categories and items in
// the same order. Nil and empty item lists compare equal.
func (s State) Equal(o State) bool {
	if len(s.Categories) != len(o.Categories) {
		return false
	}
	for i := range s.Categories {
		a, b := s.Categories[i], o.Categories[i]
		if a.Name != b.Name || len(a.Items) != len(b.Items) {
			return false
		}
		for j := range a.Items {
			if a.Items[j] != b.Items[j] {
				return false
			}
		}
	}
	return true
}

// Category returns the index of the named category, or -1.
func (s State) Category(name string) int {
	for i, c := range s.Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the named item.
func (s State) Lookup(category, item string) (Item, bool) {
	ci := s.Category(category)
	if ci < 0 {
		return Item{}, false
	}
	ii := s.Categories[ci].Find(item)
	if ii < 0 {
		return Item{}, false
	}
	return s.Categories[ci].Items[ii], true
}

// ensureCategory returns the index of the named category, appending it when
// missing.
func (s *State) ensureCategory(name string) int {
	if ci := s.Category(name); ci >= 0 {
		return ci
	}
	s.Categories = append(s.Categories, Category{Name: name})
	return len(s.Categories) - 1
}

// Ref addresses an item in place. It is only valid until the next structural
// change to the state.
func (s *State) Ref(category, item string) *Item {
	ci := s.Category(category)
	if ci < 0 {
		return nil
	}
	ii := s.Categories[ci].Find(item)
	if ii < 0 {
		return nil
	}
	return &s.Categories[ci].Items[ii]
}

// Insert adds it to the category, creating the category if needed. It
// reports false and leaves s alone when the name is already taken there.
func (s *State) Insert(category string, it Item) bool {
	ci := s.ensureCategory(category)
	if s.Categories[ci].Find(it.Name) >= 0 {
		return false
	}
	s.Categories[ci].Items = append(s.Categories[ci].Items, it)
	return true
}

// Delete removes the item record and returns it.
func (s *State) Delete(category, item string) (Item, bool) {
	ci := s.Category(category)
	if ci < 0 {
		return Item{}, false
	}
	c := &s.Categories[ci]
	ii := c.Find(item)
	if ii < 0 {
		return Item{}, false
	}
	it := c.Items[ii]
	c.Items = append(c.Items[:ii:ii], c.Items[ii+1:]...)
	return it, true
}

// Records flattens s into the file/seed shape, category by category.
func (s State) Records() []Record {
	var out []Record
	for _, c := range s.Categories {
		for _, it := range c.Items {
			out = append(out, Record{
				Name:     it.Name,
				Quantity: it.Count,
				Category: c.Name,
				Bought:   it.Bought,
			})
		}
	}
	return out
}

// FromRecords builds a state from flat records on top of base. A repeated
// category/name pair adds to the first record's quantity; negative
// quantities count as zero.
func FromRecords(base State, records []Record) State {
	s := base.Clone()
	for _, r := range records {
		qty := r.Quantity
		if qty < 0 {
			qty = 0
		}
		if ref := s.Ref(r.Category, r.Name); ref != nil {
			ref.Count += qty
			ref.Bought = ref.Bought || r.Bought
			continue
		}
		s.Insert(r.Category, Item{Name: r.Name, Count: qty, Bought: r.Bought})
	}
	return s
}
