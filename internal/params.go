package jobtop

import (
	"net/url"
	"strconv"
	"strings"
)

// Parameter is one query-string entry. A key given without "=value" is a
// flag: Flag is true and Value is empty.
type Parameter struct {
	Value string
	Flag  bool
}

type pair struct {
	key   string
	param Parameter
}

// Query holds the parameters of a page URL in the order they appeared.
type Query struct {
	pairs []pair
}

// ParseQuery reads the query string of raw, which may be a full URL, a
// "?a=b" fragment or a bare "a=b&c" string. The string is split on '&'
// first and each key and value is percent-decoded afterwards, so encoded
// '&' and '=' characters stay inside their value. A segment that fails to
// decode is kept verbatim.
func ParseQuery(raw string) Query {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	} else if strings.Contains(raw, "://") {
		raw = ""
	}

	var q Query
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		key, value, hasValue := strings.Cut(seg, "=")
		p := pair{key: unescape(key)}
		if hasValue {
			p.param.Value = unescape(value)
		} else {
			p.param.Flag = true
		}
		q.pairs = append(q.pairs, p)
	}
	return q
}

func unescape(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}

// Get returns the first parameter named name. ok is false when the key is
// absent, which is distinct from a key whose value is "false".
func (q Query) Get(name string) (Parameter, bool) {
	for _, p := range q.pairs {
		if p.key == name {
			return p.param, true
		}
	}
	return Parameter{}, false
}

// Has reports whether name appears at all.
func (q Query) Has(name string) bool {
	_, ok := q.Get(name)
	return ok
}

// String returns the value of name, or "" when absent or a bare flag.
func (q Query) String(name string) string {
	p, _ := q.Get(name)
	return p.Value
}

// Bool is true for a bare flag or a value strconv.ParseBool accepts as true.
func (q Query) Bool(name string) bool {
	p, ok := q.Get(name)
	if !ok {
		return false
	}
	if p.Flag {
		return true
	}
	b, err := strconv.ParseBool(p.Value)
	return err == nil && b
}

// Keys lists parameter names in query order, duplicates included.
func (q Query) Keys() []string {
	keys := make([]string, len(q.pairs))
	for i, p := range q.pairs {
		keys[i] = p.key
	}
	return keys
}
