package inventory

import "time"

type Size string

const (
	SizeSmall  Size = "s"
	SizeMedium Size = "m"
	SizeLarge  Size = "l"
)

// NormalizeSize maps free-form size strings onto the fixed size set.
// Absent or unrecognized sizes fall back to medium.
func NormalizeSize(raw string) Size {
	switch raw {
	case "l", "large", "L":
		return SizeLarge
	case "s", "small", "S":
		return SizeSmall
	default:
		return SizeMedium
	}
}

// Quantities holds per-size stock counters. Values can be negative: a
// decrement racing a concurrent read is allowed to drive a counter below
// zero, which is surfaced as a reconciliation signal rather than an error.
type Quantities map[Size]int64

type Record struct {
	ProductID      string     `json:"product_id"`
	ProductName    string     `json:"product_name"`
	ProductSlug    string     `json:"product_slug"`
	Quantities     Quantities `json:"quantities"`
	StockThreshold int64      `json:"stock_threshold"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LowStock reports whether any size counter has fallen to the threshold.
func (r *Record) LowStock() bool {
	for _, q := range r.Quantities {
		if q <= r.StockThreshold {
			return true
		}
	}

	return false
}

// NeedsReconciliation reports whether any counter has gone negative.
func (r *Record) NeedsReconciliation() bool {
	for _, q := range r.Quantities {
		if q < 0 {
			return true
		}
	}

	return false
}
