package searchquery

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultPathname is the search page links point to.
const DefaultPathname = "/search"

// EncodeSearchQuery URL-encodes query twice, spaces as %20. The second pass
// survives routers that decode the location once before handing it over.
func EncodeSearchQuery(query string) string {
	return encodeOnce(encodeOnce(query))
}

func encodeOnce(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodeSearchQuery reverses EncodeSearchQuery. Input that is not validly
// encoded is returned as far as it could be decoded.
func DecodeSearchQuery(encoded string) string {
	once, err := url.PathUnescape(encoded)
	if err != nil {
		return encoded
	}
	twice, err := url.PathUnescape(once)
	if err != nil {
		return once
	}
	return twice
}

type linkOptions struct {
	pathname string
	noEscape bool
}

// LinkOption customises a search link.
type LinkOption func(*linkOptions)

// WithPathname points the link at another page.
func WithPathname(pathname string) LinkOption {
	return func(o *linkOptions) {
		o.pathname = pathname
	}
}

// WithoutEscape inserts values verbatim instead of JSON-quoting them.
func WithoutEscape() LinkOption {
	return func(o *linkOptions) {
		o.noEscape = true
	}
}

func newLinkOptions(opts []LinkOption) linkOptions {
	o := linkOptions{pathname: DefaultPathname}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o linkOptions) value(v any) string {
	if o.noEscape {
		return fmt.Sprint(v)
	}
	return EscapeSearchValue(v)
}

func (o linkOptions) link(query string) string {
	return o.pathname + "?q=" + EncodeSearchQuery(query)
}

// MakeSearchLink links to a search for field:value.
func MakeSearchLink(field string, value any, opts ...LinkOption) string {
	o := newLinkOptions(opts)
	return o.link(field + ":" + o.value(value))
}

// MakeSearchRangeLink links to a search for field:[from TO to].
func MakeSearchRangeLink(field string, from, to any, opts ...LinkOption) string {
	o := newLinkOptions(opts)
	return o.link(fmt.Sprintf("%s:[%s TO %s]", field, o.value(from), o.value(to)))
}

// MakeSearchDateLink links to a search for objects matching the day of date.
func MakeSearchDateLink(field string, date time.Time, opts ...LinkOption) string {
	opts = append(opts, WithoutEscape())
	return MakeSearchLink(field, date.UTC().Format(time.DateOnly), opts...)
}
