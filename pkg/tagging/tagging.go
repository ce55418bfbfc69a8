// Package tagging evaluates tag definitions, which are XPath 1.0 expressions,
// against the lshw hardware documents of nodes.
package tagging

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

const MaxNameLength = 256

var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var (
	ErrInvalidName       = errors.New("invalid tag name")
	ErrInvalidDefinition = errors.New("invalid tag definition")
	ErrNoHardwareDetails = errors.New("node has no hardware details")
)

// ValidateName checks that name only holds letters, digits, dashes and underscores
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, MaxNameLength)
	}
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q may only contain letters, digits, dashes and underscores", ErrInvalidName, name)
	}
	return nil
}

// IsDefined is true when definition holds anything but whitespace
func IsDefined(definition string) bool {
	return strings.TrimSpace(definition) != ""
}

// Compile parses definition as an XPath expression
func Compile(definition string) (*xpath.Expr, error) {
	expr, err := xpath.Compile(definition)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDefinition, definition, err)
	}
	return expr, nil
}

// ValidateDefinition accepts undefined definitions and valid XPath expressions
func ValidateDefinition(definition string) error {
	if !IsDefined(definition) {
		return nil
	}
	_, err := Compile(definition)
	return err
}

// Truthy converts an XPath evaluation result to a boolean: booleans as-is,
// numbers when non-zero, strings when non-empty and node sets when non-empty.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case *xpath.NodeIterator:
		return t.MoveNext()
	default:
		return false
	}
}

// Match evaluates expr against the lshw document. Expressions are stateful
// while evaluating, so one expr must not be shared between goroutines.
func Match(expr *xpath.Expr, lshw []byte) (bool, error) {
	if len(lshw) == 0 {
		return false, ErrNoHardwareDetails
	}
	doc, err := xmlquery.Parse(bytes.NewReader(lshw))
	if err != nil {
		return false, fmt.Errorf("parsing hardware details: %w", err)
	}
	return Truthy(expr.Evaluate(xmlquery.CreateXPathNavigator(doc))), nil
}

// MatchDefinition compiles definition and evaluates it against lshw
func MatchDefinition(definition string, lshw []byte) (bool, error) {
	expr, err := Compile(definition)
	if err != nil {
		return false, err
	}
	return Match(expr, lshw)
}
