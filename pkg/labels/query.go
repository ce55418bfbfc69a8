package labels

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

// Keys understood by ParseQuery. Tag membership is expressed as the
// label TagKey(name) being present.
const (
	KeyZone     = "zone"
	KeyHostname = "hostname"
	KeyDomain   = "domain"
	KeyStatus   = "status"
	KeyType     = "type"
	KeyTags     = "tags"
)

var queryKeys = map[string]bool{
	KeyZone:     true,
	KeyHostname: true,
	KeyDomain:   true,
	KeyStatus:   true,
	KeyType:     true,
	KeyTags:     true,
}

// TagKey is the label key recording membership of the tag name
func TagKey(name string) string {
	return KeyTags + "/" + name
}

// ErrInvalidQuery is returned for malformed terms and unknown keys
type ErrInvalidQuery struct {
	Term   string
	Reason string
}

func (e *ErrInvalidQuery) Error() string {
	return fmt.Sprintf("invalid query term %q: %s", e.Term, e.Reason)
}

// ParseQuery turns a whitespace separated list of key=value terms into a selector.
// Repeating a key ORs its values, except for tags where every tag is required.
// Values may be double quoted or percent-encoded to carry spaces. A whole query
// may also be given percent-encoded, as found in a node list link.
func ParseQuery(query string) (*Selector, error) {
	query = strings.TrimSpace(query)
	if i := strings.Index(query, "?"); i >= 0 {
		query = query[i+1:]
	}
	if strings.HasPrefix(query, "query=") {
		if unescaped, err := url.QueryUnescape(query); err == nil {
			query = unescaped
		}
		query = strings.TrimPrefix(query, "query=")
	}

	terms, err := splitTerms(query)
	if err != nil {
		return nil, err
	}

	sel := &Selector{}
	values := map[string][]string{}
	var order []string
	for i := 0; i < len(terms); i++ {
		term := terms[i]
		key, value, ok := strings.Cut(term, "=")
		if !ok || key == "" {
			return nil, &ErrInvalidQuery{Term: term, Reason: "expected key=value"}
		}
		if !queryKeys[key] {
			return nil, &ErrInvalidQuery{Term: term, Reason: fmt.Sprintf("unknown key %q", key)}
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		if value == "" {
			return nil, &ErrInvalidQuery{Term: term, Reason: "empty value"}
		}
		if key == KeyTags {
			for _, tag := range strings.Split(value, ",") {
				if tag == "" {
					continue
				}
				sel.AddExpression(LabelExpression{Key: TagKey(tag), Operator: Exists})
			}
			continue
		}
		if key == KeyStatus {
			// Unquoted multi-word status names arrive as several terms
			if i+1 < len(terms) && !strings.Contains(terms[i+1], "=") {
				if s, ok := statusValue(value + " " + terms[i+1]); ok {
					value = s
					i++
				}
			}
			if s, ok := statusValue(value); ok {
				value = s
			}
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = append(values[key], value)
	}

	for _, key := range order {
		vals := values[key]
		if len(vals) == 1 {
			sel.AddMatchLabel(key, vals[0])
			continue
		}
		sel.AddExpression(LabelExpression{Key: key, Operator: In, Values: vals})
	}
	return sel, nil
}

// statusValue resolves a status given by display name, in any case, or by its
// slug such as failed_commissioning into the display name nodes are labelled with.
func statusValue(v string) (string, bool) {
	v = strings.ReplaceAll(v, "_", " ")
	for _, s := range nodesv1.Statuses() {
		if strings.EqualFold(s.String(), v) {
			return s.String(), true
		}
	}
	return "", false
}

// splitTerms splits on whitespace outside of double quotes and drops the quotes
func splitTerms(query string) ([]string, error) {
	var (
		terms  []string
		cur    strings.Builder
		quoted bool
		inTerm bool
	)
	for _, r := range query {
		switch {
		case r == '"':
			quoted = !quoted
			inTerm = true
		case unicode.IsSpace(r) && !quoted:
			if inTerm {
				terms = append(terms, cur.String())
				cur.Reset()
				inTerm = false
			}
		default:
			cur.WriteRune(r)
			inTerm = true
		}
	}
	if quoted {
		return nil, &ErrInvalidQuery{Term: query, Reason: "unterminated quote"}
	}
	if inTerm {
		terms = append(terms, cur.String())
	}
	return terms, nil
}
