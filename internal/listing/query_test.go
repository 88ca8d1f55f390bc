package listing_test

import (
	"net/url"
	"testing"

	"github.com/msomdec/blogapp/internal/listing"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want listing.Query
	}{
		{"", listing.Query{Page: 1}},
		{"page=3", listing.Query{Page: 3}},
		{"page=0", listing.Query{Page: 1}},
		{"page=-2", listing.Query{Page: 1}},
		{"page=abc&search=go", listing.Query{Page: 1, Search: "go"}},
		{"page=2&search=+travel+", listing.Query{Page: 2, Search: "travel"}},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			v, _ := url.ParseQuery(tc.raw)
			if got := listing.ParseQuery(v); got != tc.want {
				t.Fatalf("ParseQuery(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestQueryURL(t *testing.T) {
	tests := []struct {
		q    listing.Query
		want string
	}{
		{listing.Query{Page: 1}, "/"},
		{listing.Query{Page: 2}, "/?page=2"},
		{listing.Query{Page: 1, Search: "go lang"}, "/?search=go+lang"},
		{listing.Query{Page: 4, Search: "food"}, "/?page=4&search=food"},
	}
	for _, tc := range tests {
		if got := tc.q.URL(); got != tc.want {
			t.Fatalf("%+v.URL() = %q, want %q", tc.q, got, tc.want)
		}
	}
}
