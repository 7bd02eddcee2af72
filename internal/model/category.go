package model

// CategoryInfo is static display metadata for a category.
type CategoryInfo struct {
	Name   string
	Icon   string
	Colour string // hex, usable as a lipgloss colour
}

// DefaultCategories is the built-in category table, in display order.
var DefaultCategories = []CategoryInfo{
	{Name: "Dairy", Icon: "🥛", Colour: "#8fa9ef"},
	{Name: "Frozen", Icon: "🧊", Colour: "#e6edfc"},
	{Name: "Fruit", Icon: "🍌", Colour: "#8fefaf"},
	{Name: "Other", Icon: "🛒", Colour: "#e6e6e6"},
}

// LookupCategory finds name in infos.
func LookupCategory(infos []CategoryInfo, name string) (CategoryInfo, bool) {
	for _, info := range infos {
		if info.Name == name {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

// Category is an ordered bucket of items. Item names are unique within it.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Find returns the index of the named item, or -1.
func (c Category) Find(name string) int {
	for i, it := range c.Items {
		if it.Name == name {
			return i
		}
	}
	return -1
}
