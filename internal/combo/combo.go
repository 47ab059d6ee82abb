// Package combo prices food combos: bundles of two to five items sold at a
// discount that depends only on the final item count.
package combo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

const (
	MinItems = 2
	MaxItems = 5
)

var (
	// ErrComboFull is returned when adding an item would exceed MaxItems.
	ErrComboFull = errors.New("combo: a combo can contain at most 5 items")
	// ErrUnknownItem is returned for an id that is not in the catalog.
	ErrUnknownItem = errors.New("combo: unknown food item")
)

var discountRates = map[int]float64{
	2: 0.03,
	3: 0.05,
	4: 0.08,
	5: 0.10,
}

// DiscountRate returns the discount for a total item count, 0 outside [2,5].
func DiscountRate(totalItems int) float64 {
	return discountRates[totalItems]
}

// Line is one priced entry of a quote.
type Line struct {
	Item      domain.FoodItem `json:"item"`
	Quantity  int             `json:"quantity"`
	LineTotal float64         `json:"lineTotal"`
}

// Quote is the price breakdown of a set of items.
type Quote struct {
	Lines        []Line  `json:"lines"`
	TotalItems   int     `json:"totalItems"`
	Subtotal     float64 `json:"subtotal"`
	DiscountRate float64 `json:"discountRate"`
	FinalPrice   float64 `json:"finalPrice"`
	Valid        bool    `json:"valid"`
}

// Catalog indexes food items by id.
type Catalog map[string]domain.FoodItem

// NewCatalog builds a catalog from a list of items.
func NewCatalog(items []domain.FoodItem) Catalog {
	c := make(Catalog, len(items))
	for _, item := range items {
		c[item.ID] = item
	}
	return c
}

// Compute prices the given quantities. Non-positive quantities are ignored;
// a single quantity above MaxItems is rejected with ErrComboFull.
// The result depends only on the final quantities, never on how they were
// reached.
func Compute(catalog Catalog, quantities map[string]int) (Quote, error) {
	ids := make([]string, 0, len(quantities))
	for id, qty := range quantities {
		if qty > MaxItems {
			return Quote{}, fmt.Errorf("%w: %d of %s", ErrComboFull, qty, id)
		}
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	q := Quote{Lines: make([]Line, 0, len(ids))}
	for _, id := range ids {
		item, ok := catalog[id]
		if !ok {
			return Quote{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		qty := quantities[id]
		line := Line{Item: item, Quantity: qty, LineTotal: roundCents(item.Price * float64(qty))}
		q.Lines = append(q.Lines, line)
		q.TotalItems += qty
		q.Subtotal += item.Price * float64(qty)
	}
	q.DiscountRate = DiscountRate(q.TotalItems)
	q.FinalPrice = roundCents(q.Subtotal * (1 - q.DiscountRate))
	q.Subtotal = roundCents(q.Subtotal)
	q.Valid = q.TotalItems >= MinItems && q.TotalItems <= MaxItems
	return q, nil
}

// Combo is a combo under construction.
type Combo struct {
	catalog    Catalog
	quantities map[string]int
	total      int
}

// New starts an empty combo over catalog.
func New(catalog Catalog) *Combo {
	return &Combo{catalog: catalog, quantities: make(map[string]int)}
}

// Add puts one more unit of id into the combo. A sixth item is rejected and
// the combo is left unchanged.
func (c *Combo) Add(id string) error {
	if _, ok := c.catalog[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if c.total+1 > MaxItems {
		return ErrComboFull
	}
	c.quantities[id]++
	c.total++
	return nil
}

// Remove takes one unit of id out of the combo; removing an absent item is a no-op.
func (c *Combo) Remove(id string) {
	if c.quantities[id] == 0 {
		return
	}
	c.quantities[id]--
	c.total--
	if c.quantities[id] == 0 {
		delete(c.quantities, id)
	}
}

// Quantities returns a copy of the current quantities.
func (c *Combo) Quantities() map[string]int {
	out := make(map[string]int, len(c.quantities))
	for id, qty := range c.quantities {
		out[id] = qty
	}
	return out
}

// TotalItems is the number of units in the combo.
func (c *Combo) TotalItems() int {
	return c.total
}

// Quote prices the combo from scratch.
func (c *Combo) Quote() Quote {
	q, _ := Compute(c.catalog, c.quantities)
	return q
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
