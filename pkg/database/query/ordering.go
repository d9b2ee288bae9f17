package query

import (
	"strings"

	"github.com/pkg/errors"
)

// Ordering is the id order of a returned page of records
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

// ToOrdering parses "asc" or "desc", case insensitive.
func ToOrdering(val string) (Ordering, error) {
	switch strings.ToLower(val) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return 0, errors.Errorf("unexpected ordering: %q", val)
	}
}

func (o Ordering) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// comparison and sql return the cursor comparison operator and ORDER BY
// keyword for o
func (o Ordering) comparison() string {
	if o == Descending {
		return "<"
	}
	return ">"
}

func (o Ordering) sql() string {
	return strings.ToUpper(o.String())
}
