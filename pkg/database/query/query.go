package query

import (
	"github.com/pkg/errors"
)

var (
	ErrQueryNotSupported = errors.New("the requested query option is not supported")
)

// SupportedOptions is a bitset of the options a query accepts
type SupportedOptions byte

const (
	CanLimitResults SupportedOptions = 1 << iota
	CanSortBy
	CanQueryByCursor
)

// QueryOptions is a page request over records ordered by id.
type QueryOptions struct {
	Supported SupportedOptions

	SortBy Ordering
	Limit  uint64
	Cursor Cursor
}

type Option func(*QueryOptions) error

func (qo *QueryOptions) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(qo); err != nil {
			return err
		}
	}
	return nil
}

// option builds an Option that is rejected unless the query supports cap
func option(cap SupportedOptions, apply func(*QueryOptions)) Option {
	return func(qo *QueryOptions) error {
		if qo.Supported&cap != cap {
			return ErrQueryNotSupported
		}
		apply(qo)
		return nil
	}
}

func WithDirection(val Ordering) Option {
	return option(CanSortBy, func(qo *QueryOptions) { qo.SortBy = val })
}

func WithLimit(val uint64) Option {
	return option(CanLimitResults, func(qo *QueryOptions) { qo.Limit = val })
}

// WithCursor resumes after the record the cursor points to, in the query's
// direction.
func WithCursor(val []byte) Option {
	return option(CanQueryByCursor, func(qo *QueryOptions) { qo.Cursor = val })
}
