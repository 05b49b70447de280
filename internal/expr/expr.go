// Package expr implements the conditional expression type used by target
// declarations: a closed tagged variant (equality predicate / and / or / not)
// wrapped with a "value if true" payload. Expressions are constructed once
// from declaration data and evaluated many times against different build
// contexts; evaluation is pure and side-effect-free.
package expr

import (
	"fmt"
	"strings"

	"github.com/vk/buildforge/internal/buildctx"
)

// Cond is a predicate over a build context. The set of implementations is
// closed: Equals, All, Any, Not.
type Cond interface {
	// Eval reports whether the predicate holds in ctx.
	Eval(ctx buildctx.Context) (bool, error)

	// String renders the predicate in its declaration form. Renderings are
	// canonical: two conditions with equal strings are interchangeable.
	String() string

	cond()
}

// Equals compares one context key to a literal for equality. A key outside
// the closed context key set, or a key with no value in the given context,
// fails the evaluation.
type Equals struct {
	Key   string
	Value string
}

func (e Equals) Eval(ctx buildctx.Context) (bool, error) {
	v, set, err := ctx.Get(e.Key)
	if err != nil {
		return false, err
	}
	if !set {
		return false, &buildctx.UnknownKeyError{Key: e.Key, Unset: true}
	}
	return v == e.Value, nil
}

func (e Equals) String() string { return fmt.Sprintf("eq(%q, %q)", e.Key, e.Value) }
func (Equals) cond()            {}

// All holds when every member condition holds.
type All []Cond

func (a All) Eval(ctx buildctx.Context) (bool, error) {
	for _, c := range a {
		ok, err := c.Eval(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (a All) String() string { return renderList("all", a) }
func (All) cond()            {}

// Any holds when at least one member condition holds.
type Any []Cond

func (a Any) Eval(ctx buildctx.Context) (bool, error) {
	for _, c := range a {
		ok, err := c.Eval(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a Any) String() string { return renderList("any", a) }
func (Any) cond()            {}

// Not inverts a condition.
type Not struct {
	Cond Cond
}

func (n Not) Eval(ctx buildctx.Context) (bool, error) {
	ok, err := n.Cond.Eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (n Not) String() string { return fmt.Sprintf("not(%s)", n.Cond) }
func (Not) cond()            {}

func renderList(name string, conds []Cond) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// Entry is one requirement entry: a payload value plus an optional guard.
// A nil Cond means the entry is unconditional.
type Entry struct {
	Value string
	Cond  Cond
}

// Lit builds an unconditional entry.
func Lit(value string) Entry {
	return Entry{Value: value}
}

// When builds an entry whose payload applies only when cond holds.
func When(cond Cond, value string) Entry {
	return Entry{Value: value, Cond: cond}
}

// Resolve evaluates the entry against ctx, returning the payload and whether
// it applies.
func (e Entry) Resolve(ctx buildctx.Context) (string, bool, error) {
	if e.Cond == nil {
		return e.Value, true, nil
	}
	ok, err := e.Cond.Eval(ctx)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return e.Value, true, nil
}

// Key returns a stable identity for deduplication: two entries with the same
// payload under the same (canonically rendered) guard are duplicates.
func (e Entry) Key() string {
	if e.Cond == nil {
		return e.Value
	}
	return e.Cond.String() + "\x00" + e.Value
}

// String renders the entry in its declaration form.
func (e Entry) String() string {
	if e.Cond == nil {
		return fmt.Sprintf("%q", e.Value)
	}
	return fmt.Sprintf("when(%s, %q)", e.Cond, e.Value)
}
