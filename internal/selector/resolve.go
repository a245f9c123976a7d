package selector

import (
	"context"
	"errors"
	"fmt"
)

// ErrElementNotFound is matched by every ElementNotFoundError.
var ErrElementNotFound = errors.New("element not found")

// ElementNotFoundError reports that no candidate of a target was found.
type ElementNotFoundError struct {
	// Element is the target name.
	Element string

	// Tried is the number of candidates attempted.
	Tried int
}

// Error implements error.
func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("could not find %s (tried %d selectors)", e.Element, e.Tried)
}

// Is makes errors.Is(err, ErrElementNotFound) true.
func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// Waiter waits until an element matching the locator satisfies the
// condition, or the context ends.
type Waiter interface {
	WaitFor(ctx context.Context, loc Locator, cond Condition) error
}

// Match is the result of a successful resolution.
type Match struct {
	// Index is the position of the matching candidate.
	Index int

	// Locator is the matching candidate.
	Locator Locator
}

// Resolve tries the target's candidates in order and returns the first
// one the waiter reports as satisfied. Each candidate gets at most
// t.Timeout. If every candidate fails, it returns *ElementNotFoundError.
// If ctx itself ends, its error is returned instead.
func Resolve(ctx context.Context, w Waiter, t Target) (Match, error) {
	for i, loc := range t.Candidates {
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}

		if err := waitOne(ctx, w, loc, t); err == nil {
			return Match{Index: i, Locator: loc}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	return Match{}, &ElementNotFoundError{Element: t.Name, Tried: len(t.Candidates)}
}

func waitOne(ctx context.Context, w Waiter, loc Locator, t Target) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	return w.WaitFor(ctx, loc, t.Condition)
}
