// Package codec converts cargo records to and from the pipe-delimited line
// format of the registry data file:
//
//	id|tracking|sender|senderAddress|destination|status|totalWeight|itemCount|(name|quantity|unitWeight|){itemCount}
//
// Fields are not escaped. A field value containing the delimiter or a
// newline corrupts its record when read back.
package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// Delimiter separates fields within a record line.
const Delimiter = "|"

// Positions of the fixed prefix fields.
const (
	fieldID = iota
	fieldTracking
	fieldSender
	fieldSenderAddress
	fieldDestination
	fieldStatus
	fieldTotalWeight
	fieldItemCount
	prefixFields
)

// fieldsPerItem is the number of fields each item occupies after the prefix.
const fieldsPerItem = 3

// Encode renders c as a single line terminated by a newline. Weights are
// written with two decimal places.
func Encode(c types.Cargo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s|%s|%s|%s|%.2f|%d|",
		c.ID, c.TrackingNumber, c.Sender, c.SenderAddress,
		c.Destination, c.Status, c.TotalWeight, len(c.Items))
	for _, item := range c.Items {
		fmt.Fprintf(&b, "%s|%d|%.2f|", item.Name, item.Quantity, item.UnitWeight)
	}
	b.WriteByte('\n')
	return b.String()
}

// Decode parses one record line. A trailing newline is ignored.
//
// It returns an error wrapping ErrMalformedRecord when a prefix field is
// missing or the item count is out of range, and ErrInvalidNumericField when
// a numeric field does not parse or is not finite. When the line holds fewer item fields than
// the item count promises, the remaining items keep their zero value.
func Decode(line string) (types.Cargo, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, Delimiter)
	// The trailing delimiter leaves an empty last element.
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	if len(fields) < prefixFields {
		return types.Cargo{}, fmt.Errorf("%d of %d fields: %w", len(fields), prefixFields, types.ErrMalformedRecord)
	}

	var c types.Cargo
	var err error
	if c.ID, err = parseInt("id", fields[fieldID]); err != nil {
		return types.Cargo{}, err
	}
	c.TrackingNumber = fields[fieldTracking]
	c.Sender = fields[fieldSender]
	c.SenderAddress = fields[fieldSenderAddress]
	c.Destination = fields[fieldDestination]
	c.Status = fields[fieldStatus]
	if c.TotalWeight, err = parseFloat("total weight", fields[fieldTotalWeight]); err != nil {
		return types.Cargo{}, err
	}
	count, err := parseInt("item count", fields[fieldItemCount])
	if err != nil {
		return types.Cargo{}, err
	}
	if count < 0 || count > types.MaxItems {
		return types.Cargo{}, fmt.Errorf("item count %d outside 0..%d: %w", count, types.MaxItems, types.ErrMalformedRecord)
	}

	c.Items = make([]types.CargoItem, count)
	rest := fields[prefixFields:]
	for i := 0; i < count; i++ {
		base := i * fieldsPerItem
		if base >= len(rest) {
			break
		}
		item := &c.Items[i]
		item.Name = rest[base]
		if base+1 >= len(rest) {
			break
		}
		if item.Quantity, err = parseInt(fmt.Sprintf("item %d quantity", i+1), rest[base+1]); err != nil {
			return types.Cargo{}, err
		}
		if base+2 >= len(rest) {
			break
		}
		if item.UnitWeight, err = parseFloat(fmt.Sprintf("item %d unit weight", i+1), rest[base+2]); err != nil {
			return types.Cargo{}, err
		}
	}
	return c, nil
}

func parseInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, types.ErrInvalidNumericField)
	}
	return n, nil
}

// parseFloat accepts finite decimal values only; NaN and Inf are rejected.
func parseFloat(field, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s %q: %w", field, s, types.ErrInvalidNumericField)
	}
	return f, nil
}
