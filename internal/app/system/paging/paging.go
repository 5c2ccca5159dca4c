// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged lists.
const PageSize = 50

// MaxPageSize caps any client-requested limit.
const MaxPageSize = 500

// ErrBadLimit is returned for a limit that is not a positive integer.
var ErrBadLimit = errors.New("limit must be a positive integer")

// ParseLimit reads the "limit" query parameter. A missing value yields def;
// larger values are clamped to max.
func ParseLimit(r *http.Request, def, max int64) (int64, error) {
	s := query.Get(r, "limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrBadLimit
	}
	if n > max {
		return max, nil
	}
	return n, nil
}
