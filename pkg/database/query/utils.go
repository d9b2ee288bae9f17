package query

import "strconv"

const (
	defaultPagingLimit = 1000
)

// PaginateQuery appends the cursor condition, ordering and limit to query,
// which must end in a parenthesized WHERE clause. Placeholders continue after
// the ones already in opts.
//
//	PaginateQuery("SELECT * FROM t WHERE (owner = $1)", []interface{}{owner}, cursor, 10, Ascending)
//	> "SELECT * FROM t WHERE (owner = $1) AND id > $2 ORDER BY id ASC LIMIT $3"
func PaginateQuery(query string, opts []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	placeholder := func(value interface{}) string {
		opts = append(opts, value)
		return "$" + strconv.Itoa(len(opts))
	}

	if len(cursor) > 0 {
		query += " AND id " + direction.comparison() + " " + placeholder(cursor.ToUint64())
	}

	query += " ORDER BY id " + direction.sql()

	if limit > 0 {
		query += " LIMIT " + placeholder(limit)
	}

	return query, opts
}

// DefaultPaginationHandler applies opts over an ascending, first page request
// that supports every option.
func DefaultPaginationHandler(opts ...Option) (*QueryOptions, error) {
	req := QueryOptions{
		Limit:     defaultPagingLimit,
		SortBy:    Ascending,
		Supported: CanLimitResults | CanSortBy | CanQueryByCursor,
	}
	if err := req.Apply(opts...); err != nil {
		return nil, ErrQueryNotSupported
	}

	if req.Limit > defaultPagingLimit {
		return nil, ErrQueryNotSupported
	}
	if len(req.Cursor) > 0 && len(req.Cursor) != 8 {
		return nil, ErrQueryNotSupported
	}

	return &req, nil
}
