// Package registry implements the in-memory cargo registry: a bounded,
// insertion-ordered collection of cargo records with tracking number
// allocation and case-insensitive lookups.
package registry

import (
	"fmt"
	"iter"
	"math"

	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// Compile-time interface check: Store must implement Registry.
var _ types.Registry = (*Store)(nil)

// Store holds at most types.MaxCargo records in insertion order. It owns its
// records exclusively; values are copied on the way in and on the way out.
// Store is not safe for concurrent use.
type Store struct {
	records   []types.Cargo
	capacity  int
	allocator *Allocator
}

// Option configures a Store.
type Option func(*Store)

// WithAllocator injects the allocator used for new tracking numbers.
func WithAllocator(a *Allocator) Option {
	return func(s *Store) {
		s.allocator = a
	}
}

// New creates an empty Store. Without WithAllocator the Store gets a fresh
// allocator seeded at types.TrackingSeed.
func New(opts ...Option) *Store {
	s := &Store{capacity: types.MaxCargo}
	for _, opt := range opts {
		opt(s)
	}
	if s.allocator == nil {
		s.allocator = NewAllocator(types.TrackingSeed)
	}
	s.records = make([]types.Cargo, 0, s.capacity)
	return s
}

// Allocator returns the allocator the Store issues tracking numbers from.
func (s *Store) Allocator() *Allocator {
	return s.allocator
}

// NextTracking returns the counter value of the next tracking number.
func (s *Store) NextTracking() int {
	return s.allocator.Peek()
}

// Add validates candidate, assigns a tracking number, and appends it.
// The candidate's TrackingNumber and TotalWeight are overwritten.
func (s *Store) Add(candidate types.Cargo) (types.Cargo, error) {
	if len(s.records) >= s.capacity {
		return types.Cargo{}, fmt.Errorf("add cargo %d: registry holds %d records: %w", candidate.ID, s.capacity, types.ErrCapacityExceeded)
	}
	if s.indexOf(candidate.ID) >= 0 {
		return types.Cargo{}, fmt.Errorf("add cargo %d: %w", candidate.ID, types.ErrDuplicateID)
	}
	if err := candidate.Validate(); err != nil {
		return types.Cargo{}, fmt.Errorf("add cargo %d: %w", candidate.ID, err)
	}

	record := candidate.Clone()
	record.Normalize()
	record.TrackingNumber = s.allocator.Next()
	record.TotalWeight = record.ComputeTotalWeight()

	s.records = append(s.records, record)
	return record.Clone(), nil
}

// Restore appends a record read back from storage, keeping its tracking
// number. TotalWeight is recomputed from the items, so an item with a
// non-finite unit weight is rejected.
func (s *Store) Restore(record types.Cargo) error {
	if len(s.records) >= s.capacity {
		return fmt.Errorf("restore cargo %d: %w", record.ID, types.ErrCapacityExceeded)
	}
	if len(record.Items) > types.MaxItems {
		return fmt.Errorf("restore cargo %d: %d items: %w", record.ID, len(record.Items), types.ErrCapacityExceeded)
	}
	for _, item := range record.Items {
		if math.IsNaN(item.UnitWeight) || math.IsInf(item.UnitWeight, 0) {
			return fmt.Errorf("restore cargo %d: item %q: %w", record.ID, item.Name, types.ErrInvalidWeight)
		}
	}
	if s.indexOf(record.ID) >= 0 {
		return fmt.Errorf("restore cargo %d: %w", record.ID, types.ErrDuplicateID)
	}
	if _, ok := s.FindByTrackingNumber(record.TrackingNumber); ok {
		return fmt.Errorf("restore cargo %d: %s: %w", record.ID, record.TrackingNumber, types.ErrDuplicateTrackingNumber)
	}

	rec := record.Clone()
	rec.Normalize()
	rec.TotalWeight = rec.ComputeTotalWeight()
	s.allocator.Observe(rec.TrackingNumber)

	s.records = append(s.records, rec)
	return nil
}

// UpdateStatus sets the status of the record with the given id.
func (s *Store) UpdateStatus(id int, status string) (types.Cargo, error) {
	i := s.indexOf(id)
	if i < 0 {
		return types.Cargo{}, fmt.Errorf("update status of cargo %d: %w", id, types.ErrNotFound)
	}
	s.records[i].Status = types.ClipText(status)
	return s.records[i].Clone(), nil
}

// TotalWeight returns the combined weight of every record.
func (s *Store) TotalWeight() float64 {
	var total float64
	for _, r := range s.records {
		total += r.TotalWeight
	}
	return total
}

// FindByDestination yields records whose destination equals term, ignoring
// ASCII case.
func (s *Store) FindByDestination(term string) iter.Seq[types.Cargo] {
	return s.filter(func(c *types.Cargo) bool {
		return foldEqual(c.Destination, term)
	})
}

// FindByStatus yields records whose status equals term, ignoring ASCII case.
func (s *Store) FindByStatus(term string) iter.Seq[types.Cargo] {
	return s.filter(func(c *types.Cargo) bool {
		return foldEqual(c.Status, term)
	})
}

// FindByID returns the record with the given id.
func (s *Store) FindByID(id int) (types.Cargo, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return types.Cargo{}, false
	}
	return s.records[i].Clone(), true
}

// FindByTrackingNumber returns the record whose tracking number is exactly code.
func (s *Store) FindByTrackingNumber(code string) (types.Cargo, bool) {
	for i := range s.records {
		if s.records[i].TrackingNumber == code {
			return s.records[i].Clone(), true
		}
	}
	return types.Cargo{}, false
}

// All yields every record in insertion order.
func (s *Store) All() iter.Seq[types.Cargo] {
	return s.filter(func(*types.Cargo) bool { return true })
}

// Len returns the number of records held.
func (s *Store) Len() int {
	return len(s.records)
}

// Cap returns the maximum number of records the Store accepts.
func (s *Store) Cap() int {
	return s.capacity
}

// filter returns a sequence over the records matching keep. Each iteration
// scans the records as they are at that moment.
func (s *Store) filter(keep func(*types.Cargo) bool) iter.Seq[types.Cargo] {
	return func(yield func(types.Cargo) bool) {
		for i := range s.records {
			if !keep(&s.records[i]) {
				continue
			}
			if !yield(s.records[i].Clone()) {
				return
			}
		}
	}
}

func (s *Store) indexOf(id int) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
