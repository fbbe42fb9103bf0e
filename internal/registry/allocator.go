package registry

import (
	"strconv"
	"strings"

	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// Allocator issues tracking numbers of the form TRK<counter>. The counter
// only moves forward, so a number is never issued twice by one allocator.
type Allocator struct {
	next int
}

// NewAllocator returns an allocator whose first number uses seed.
func NewAllocator(seed int) *Allocator {
	return &Allocator{next: seed}
}

// Next returns a fresh tracking number and advances the counter.
func (a *Allocator) Next() string {
	code := types.TrackingPrefix + strconv.Itoa(a.next)
	a.next++
	return code
}

// Peek returns the counter value the next call to Next will use.
func (a *Allocator) Peek() int {
	return a.next
}

// Observe moves the counter past the suffix of an already issued tracking
// number. Numbers that do not have the TRK<digits> shape are ignored.
func (a *Allocator) Observe(code string) {
	if n, ok := trackingSuffix(code); ok {
		a.Reserve(n + 1)
	}
}

// Reserve moves the counter forward to next if it is behind it.
func (a *Allocator) Reserve(next int) {
	if next > a.next {
		a.next = next
	}
}

// trackingSuffix parses the counter out of a TRK<digits> tracking number.
func trackingSuffix(code string) (int, bool) {
	digits, ok := strings.CutPrefix(code, types.TrackingPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
