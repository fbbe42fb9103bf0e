package types

import (
	"errors"
	"iter"
)

// Registry is the bounded, ordered collection of cargo records.
// Every Cargo it returns is a copy; mutating it does not affect the registry.
type Registry interface {
	// Add validates candidate, assigns it a fresh tracking number, computes
	// its total weight, and appends it. Returns ErrCapacityExceeded when the
	// registry or the item list is full and ErrDuplicateID when the id is
	// taken. The registry is unchanged on error.
	Add(candidate Cargo) (Cargo, error)

	// Restore appends a record that already carries a tracking number, as
	// read back from storage. Returns ErrCapacityExceeded, ErrDuplicateID,
	// or ErrDuplicateTrackingNumber.
	Restore(record Cargo) error

	// UpdateStatus replaces the status of the record with the given id.
	// Returns ErrNotFound if no such record exists.
	UpdateStatus(id int, status string) (Cargo, error)

	// TotalWeight returns the sum of TotalWeight over all records.
	TotalWeight() float64

	// FindByDestination yields, in registry order, the records whose
	// destination equals term ignoring ASCII case.
	FindByDestination(term string) iter.Seq[Cargo]

	// FindByStatus yields, in registry order, the records whose status
	// equals term ignoring ASCII case.
	FindByStatus(term string) iter.Seq[Cargo]

	// FindByID returns the record with the given id.
	FindByID(id int) (Cargo, bool)

	// FindByTrackingNumber returns the record whose tracking number equals
	// code byte for byte.
	FindByTrackingNumber(code string) (Cargo, bool)

	// All yields every record in insertion order.
	All() iter.Seq[Cargo]

	// Len returns the number of records held.
	Len() int

	// Cap returns the maximum number of records the registry accepts.
	Cap() int
}

// Backend persists a Registry to a path and reads it back.
type Backend interface {
	// Load reads the registry stored at path. A missing path yields an empty
	// registry and no error. Records that cannot be decoded are skipped.
	Load(path string) (Registry, error)

	// Save overwrites path with every record of r, in registry order.
	// Failures wrap ErrIO.
	Save(r Registry, path string) error
}

// Registry operation errors.
var (
	ErrCapacityExceeded        = errors.New("capacity exceeded")
	ErrDuplicateID             = errors.New("duplicate cargo id")
	ErrDuplicateTrackingNumber = errors.New("duplicate tracking number")
	ErrInvalidWeight           = errors.New("unit weight must be positive")
	ErrInvalidQuantity         = errors.New("quantity must not be negative")
	ErrNotFound                = errors.New("cargo not found")
)

// Persistence errors.
var (
	ErrMalformedRecord     = errors.New("malformed record")
	ErrInvalidNumericField = errors.New("invalid numeric field")
	ErrIO                  = errors.New("i/o error")
)
