package model

import "math/rand"

// SampleItems populate a fresh list when nothing else is available.
var SampleItems = []Record{
	{Name: "Milk", Quantity: 4, Category: "Dairy"},
	{Name: "Yogurt", Quantity: 1, Category: "Dairy"},
	{Name: "Pizza", Quantity: 1, Category: "Frozen"},
	{Name: "Eggs", Quantity: 12, Category: "Other"},
	{Name: "Olive Oil", Quantity: 1, Category: "Other"},
	{Name: "Cheese", Quantity: 1, Category: "Dairy"},
	{Name: "Burritos", Quantity: 4, Category: "Frozen"},
	{Name: "Waffles", Quantity: 2, Category: "Frozen"},
	{Name: "Bananas", Quantity: 6, Category: "Fruit"},
	{Name: "Apples", Quantity: 3, Category: "Fruit"},
	{Name: "Oranges", Quantity: 3, Category: "Fruit"},
}

// RandomSample returns n distinct sample items. SampleItems is not modified.
func RandomSample(n int, rng *rand.Rand) []Record {
	if n <= 0 {
		return nil
	}
	if n > len(SampleItems) {
		n = len(SampleItems)
	}
	pool := make([]Record, len(SampleItems))
	copy(pool, SampleItems)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:n]
}
