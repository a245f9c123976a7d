package selector

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Strategy is the way a Locator's value is interpreted.
type Strategy string

const (
	// ByID matches the element whose id attribute equals the value.
	ByID Strategy = "id"

	// ByName matches elements whose name attribute equals the value.
	ByName Strategy = "name"

	// ByCSS matches elements with a CSS selector.
	ByCSS Strategy = "css"

	// ByXPath matches elements with an XPath expression.
	ByXPath Strategy = "xpath"
)

// ErrInvalidLocator is returned for a locator with an unknown strategy or
// an empty value.
var ErrInvalidLocator = errors.New("invalid locator")

// ParseStrategy converts a strategy name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case ByID, ByName, ByCSS, ByXPath:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q (use id, name, css or xpath)", ErrInvalidLocator, s)
	}
}

// Locator is one way of finding an element on a page.
type Locator struct {
	// By is the lookup strategy.
	By Strategy `yaml:"by" json:"by"`

	// Value is the id, name, CSS selector or XPath expression.
	Value string `yaml:"value" json:"value"`
}

// ID returns an id locator.
func ID(v string) Locator { return Locator{By: ByID, Value: v} }

// Name returns a name-attribute locator.
func Name(v string) Locator { return Locator{By: ByName, Value: v} }

// CSS returns a CSS selector locator.
func CSS(v string) Locator { return Locator{By: ByCSS, Value: v} }

// XPath returns an XPath locator.
func XPath(v string) Locator { return Locator{By: ByXPath, Value: v} }

// Validate checks the strategy and value.
func (l Locator) Validate() error {
	if _, err := ParseStrategy(string(l.By)); err != nil {
		return err
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("%w: empty %s value", ErrInvalidLocator, l.By)
	}
	return nil
}

// String returns "strategy=value".
func (l Locator) String() string {
	return string(l.By) + "=" + l.Value
}

// Condition is what must hold for a located element to count as found.
type Condition int

const (
	// Present means the element exists in the document.
	Present Condition = iota

	// Clickable means the element is visible and enabled.
	Clickable
)

// String returns the condition name.
func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Clickable:
		return "clickable"
	default:
		return "unknown"
	}
}

// Target is a named element with its ordered candidate locators.
type Target struct {
	// Name identifies the element in errors and logs (e.g. "username").
	Name string

	// Candidates are tried in order; the first satisfied one wins.
	Candidates []Locator

	// Condition is the wait condition applied to every candidate.
	Condition Condition

	// Timeout bounds the wait for each candidate. Zero means the
	// caller's context alone bounds it.
	Timeout time.Duration
}
