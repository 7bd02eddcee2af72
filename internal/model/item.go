package model

// Item is one product line in a category.
// Count is never negative; an item with Count == 0 stays in its category but
// is not on the active list.
type Item struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Bought bool   `json:"bought"`
}

// Active reports whether the item is on the list.
func (it Item) Active() bool { return it.Count > 0 }

// Record is the flat shape used by the seed endpoint and the data file.
type Record struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
	Bought   bool   `json:"bought"`
}
