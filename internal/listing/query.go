package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is the committed (page, search) pair that selects what the listing
// shows. It is mirrored into the page URL.
type Query struct {
	Page   int
	Search string
}

// ParseQuery reads a Query from URL parameters. A missing, malformed or
// non-positive page is treated as 1.
func ParseQuery(v url.Values) Query {
	q := Query{Page: 1, Search: strings.TrimSpace(v.Get("search"))}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	return q
}

// Values returns the URL parameters for q. page is omitted when 1 and search
// when empty.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// URL returns the home path carrying q.
func (q Query) URL() string {
	if enc := q.Values().Encode(); enc != "" {
		return "/?" + enc
	}
	return "/"
}

// WithPage returns q at page n.
func (q Query) WithPage(n int) Query {
	q.Page = n
	return q
}
