// Package labels implements label maps, selectors and the node list query language
package labels

import (
	"fmt"
	"slices"
)

const (
	In           Operator = "In"
	NotIn        Operator = "NotIn"
	Exists       Operator = "Exists"
	DoesNotExist Operator = "DoesNotExist"
)

const DefaultLabelPrefix = "metal.io"

type LabelPrefix string

func (d LabelPrefix) String() string {
	return fmt.Sprintf("%s/%s", DefaultLabelPrefix, string(d))
}

// Label is a map representing metadata of each resource.
type Label map[string]string

func (l Label) Get(key string) string {
	if val, ok := l[key]; ok {
		return val
	}
	return ""
}

func (l Label) Set(key string, value string) {
	l[key] = value
}

func (l Label) Delete(key string) {
	delete(l, key)
}

func (l Label) AppendMap(m map[string]string) {
	for k, v := range m {
		l.Set(k, v)
	}
}

type Operator string

// Selector represents a filter based on key-value conditions.
type Selector struct {
	MatchLabels Label
	Expressions []LabelExpression
}

type LabelExpression struct {
	Key      string
	Operator Operator
	Values   []string
}

type LabelSelector interface {
	Matches(labels Label) bool
	AddMatchLabel(key, value string)
	AddExpression(expr LabelExpression)
}

var _ LabelSelector = &Selector{}

func (s *Selector) AddMatchLabel(key, value string) {
	if s.MatchLabels == nil {
		s.MatchLabels = Label{}
	}
	s.MatchLabels.Set(key, value)
}

func (s *Selector) AddExpression(expr LabelExpression) {
	s.Expressions = append(s.Expressions, expr)
}

// Empty is true when the selector matches everything
func (s *Selector) Empty() bool {
	return s == nil || (len(s.MatchLabels) == 0 && len(s.Expressions) == 0)
}

func (s *Selector) Matches(labels Label) bool {
	if s == nil {
		return true
	}

	for key, value := range s.MatchLabels {
		if labels[key] != value {
			return false
		}
	}

	for _, expr := range s.Expressions {
		if !evaluateExpression(expr, labels) {
			return false
		}
	}

	return true
}

func evaluateExpression(expr LabelExpression, labels Label) bool {
	switch expr.Operator {
	case In:
		return slices.Contains(expr.Values, labels[expr.Key])
	case NotIn:
		return !slices.Contains(expr.Values, labels[expr.Key])
	case Exists:
		_, exists := labels[expr.Key]
		return exists
	case DoesNotExist:
		_, exists := labels[expr.Key]
		return !exists
	default:
		return false
	}
}

func New() Label {
	return Label{}
}

// NewSelectorFromMap returns a selector requiring every key/value of m
func NewSelectorFromMap(m map[string]string) *Selector {
	s := &Selector{MatchLabels: Label{}}
	s.MatchLabels.AppendMap(m)
	return s
}

// Merge combines several label maps. Later maps win.
func Merge(l ...map[string]string) Label {
	res := New()
	for _, m := range l {
		res.AppendMap(m)
	}
	return res
}
