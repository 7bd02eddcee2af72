package store

import "github.com/idilsaglam/basket/internal/model"

// Categories returns category names in insertion order.
func (s *Store) Categories() []string {
	out := make([]string, 0, len(s.state.Categories))
	for _, c := range s.state.Categories {
		out = append(out, c.Name)
	}
	return out
}

// Items returns every item name recorded in the category, including items
// whose count is zero.
func (s *Store) Items(category string) []string {
	return s.names(category, func(model.Item) bool { return true })
}

// ActiveItems returns the items currently on the list.
func (s *Store) ActiveItems(category string) []string {
	return s.names(category, model.Item.Active)
}

func (s *Store) names(category string, keep func(model.Item) bool) []string {
	ci := s.state.Category(category)
	if ci < 0 {
		return nil
	}
	var out []string
	for _, it := range s.state.Categories[ci].Items {
		if keep(it) {
			out = append(out, it.Name)
		}
	}
	return out
}

// Count returns the item's quantity, or 0 when it does not exist.
func (s *Store) Count(category, item string) int {
	it, _ := s.state.Lookup(category, item)
	return it.Count
}

func (s *Store) Bought(category, item string) bool {
	it, _ := s.state.Lookup(category, item)
	return it.Bought
}

// Has reports whether an item record exists, whatever its count.
func (s *Store) Has(category, item string) bool {
	_, ok := s.state.Lookup(category, item)
	return ok
}

// Totals counts active items and how many of them are bought.
func (s *Store) Totals() (bought, active int) {
	for _, c := range s.state.Categories {
		for _, it := range c.Items {
			if !it.Active() {
				continue
			}
			active++
			if it.Bought {
				bought++
			}
		}
	}
	return bought, active
}

// CategoryInfo looks up static display metadata.
func (s *Store) CategoryInfo(name string) (model.CategoryInfo, bool) {
	return model.LookupCategory(s.categories, name)
}

// CategoryInfos returns the static category table.
func (s *Store) CategoryInfos() []model.CategoryInfo {
	out := make([]model.CategoryInfo, len(s.categories))
	copy(out, s.categories)
	return out
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.State {
	return s.state.Clone()
}
