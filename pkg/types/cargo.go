// Cargo entity and the items it carries.
package types

import (
	"math"
	"slices"
	"unicode/utf8"
)

// Registry bounds and tracking number format.
const (
	MaxCargo       = 100   // Records a registry can hold.
	MaxItems       = 10    // Items a single cargo record can hold.
	MaxTextLength  = 99    // Effective byte length of every text field.
	TrackingPrefix = "TRK" // Tracking numbers are TrackingPrefix + counter.
	TrackingSeed   = 1000  // First counter value of a fresh allocator.
)

// CargoItem is one line of a shipment. It has no lifecycle of its own; it is
// created and destroyed with the Cargo that owns it.
type CargoItem struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitWeight float64 `json:"unit_weight"` // Kilograms, must be positive.
}

// Weight returns Quantity × UnitWeight.
func (i CargoItem) Weight() float64 {
	return float64(i.Quantity) * i.UnitWeight
}

// Cargo is one shipment record.
type Cargo struct {
	ID             int         `json:"id"`
	TrackingNumber string      `json:"tracking_number"`
	Sender         string      `json:"sender"`
	SenderAddress  string      `json:"sender_address"`
	Destination    string      `json:"destination"`
	Status         string      `json:"status"`
	TotalWeight    float64     `json:"total_weight"` // Sum of item weights.
	Items          []CargoItem `json:"items"`
}

// ComputeTotalWeight sums the weight of every item. It does not modify c.
func (c Cargo) ComputeTotalWeight() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Weight()
	}
	return total
}

// Clone returns a deep copy of c so callers never alias the item slice of a
// record owned by a registry.
func (c Cargo) Clone() Cargo {
	c.Items = slices.Clone(c.Items)
	return c
}

// Validate checks the item list against MaxItems and the per-item weight and
// quantity rules. Unit weights must be positive and finite.
func (c Cargo) Validate() error {
	if len(c.Items) > MaxItems {
		return ErrCapacityExceeded
	}
	for _, item := range c.Items {
		if item.Quantity < 0 {
			return ErrInvalidQuantity
		}
		if !(item.UnitWeight > 0) || math.IsInf(item.UnitWeight, 1) {
			return ErrInvalidWeight
		}
	}
	return nil
}

// Normalize truncates every text field to MaxTextLength bytes.
func (c *Cargo) Normalize() {
	c.Sender = ClipText(c.Sender)
	c.SenderAddress = ClipText(c.SenderAddress)
	c.Destination = ClipText(c.Destination)
	c.Status = ClipText(c.Status)
	c.TrackingNumber = ClipText(c.TrackingNumber)
	for i := range c.Items {
		c.Items[i].Name = ClipText(c.Items[i].Name)
	}
}

// ClipText truncates s to at most MaxTextLength bytes without splitting a
// UTF-8 sequence.
func ClipText(s string) string {
	if len(s) <= MaxTextLength {
		return s
	}
	cut := MaxTextLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
