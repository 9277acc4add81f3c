package testorder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Selection is one diagnostic test picked for a visit, priced at pick time.
type Selection struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Order accumulates test selections in memory while the doctor is choosing.
// Nothing is persisted until Submit. Names are unique within an order.
type Order struct {
	items []Selection
}

// NewOrder returns an empty order.
func NewOrder() *Order {
	return &Order{}
}

// Toggle adds the named test if absent, removes it if present. Toggling is
// idempotent on name identity, so the order contains exactly the names
// toggled an odd number of times.
func (o *Order) Toggle(name string, price int64) {
	for i, it := range o.items {
		if it.Name == name {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return
		}
	}
	o.items = append(o.items, Selection{Name: name, Price: price})
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// AddCustom validates and adds an ad-hoc test. The raw price text is
// sanitized by stripping every non-digit character before parsing, so
// formatted input like "120.000 ₫" is accepted.
func (o *Order) AddCustom(name, rawPrice string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name", "test name is required")
	}

	digits := nonDigits.ReplaceAllString(rawPrice, "")
	if digits == "" {
		return apperr.Validation("price", "a valid price is required")
	}
	price, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || price <= 0 {
		return apperr.Validation("price", "price must be a positive amount")
	}

	if o.Contains(name) {
		return apperr.Validation("name", "this test is already selected")
	}

	o.items = append(o.items, Selection{Name: name, Price: price})
	return nil
}

// Contains reports whether a test with the given name is selected.
func (o *Order) Contains(name string) bool {
	for _, it := range o.items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// Total sums the selected prices in integer currency units.
func (o *Order) Total() int64 {
	var sum int64
	for _, it := range o.items {
		sum += it.Price
	}
	return sum
}

// Items returns the current selections in pick order.
func (o *Order) Items() []Selection {
	return o.items
}

// Len returns the number of selections.
func (o *Order) Len() int { return len(o.items) }

// Empty reports whether nothing is selected.
func (o *Order) Empty() bool { return len(o.items) == 0 }
