// Package buildctx defines the immutable build context: the closed set of
// configuration values that conditional expressions are evaluated against.
package buildctx

import "fmt"

// The closed key set. There is no wildcard or default key beyond these;
// a key that is not listed here is rejected, and a listed key may be unset.
const (
	KeyConfiguration = "configuration"
	KeyPlatform      = "platform"
	KeyCompiler      = "compiler"
)

// Keys returns the closed context key set in canonical order.
func Keys() []string {
	return []string{KeyConfiguration, KeyPlatform, KeyCompiler}
}

// UnknownKeyError reports a reference to a key outside the closed key set,
// or, when Unset is true, a valid key that carries no value in this context.
type UnknownKeyError struct {
	Key   string
	Unset bool
}

func (e *UnknownKeyError) Error() string {
	if e.Unset {
		return fmt.Sprintf("build context key %q has no value in this context", e.Key)
	}
	return fmt.Sprintf("%q is not a build context key", e.Key)
}

// Context is an immutable mapping of the closed key set to string values.
// The zero value is a context with every key unset.
type Context struct {
	values map[string]string
}

// validKey reports whether key belongs to the closed key set.
func validKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// New builds a context from the given values. Keys outside the closed key
// set fail with UnknownKeyError. The input map is copied, never retained.
func New(values map[string]string) (Context, error) {
	c := Context{values: make(map[string]string, len(values))}
	for k, v := range values {
		if !validKey(k) {
			return Context{}, &UnknownKeyError{Key: k}
		}
		c.values[k] = v
	}
	return c, nil
}

// Get returns the value for key and whether it is set. A key outside the
// closed key set fails with UnknownKeyError.
func (c Context) Get(key string) (string, bool, error) {
	if !validKey(key) {
		return "", false, &UnknownKeyError{Key: key}
	}
	v, ok := c.values[key]
	return v, ok, nil
}

// Merge returns a new context holding the receiver's values with overrides
// applied key-by-key; the override wins on collision. The receiver is not
// modified.
func (c Context) Merge(overrides map[string]string) (Context, error) {
	merged := make(map[string]string, len(c.values)+len(overrides))
	for k, v := range c.values {
		merged[k] = v
	}
	for k, v := range overrides {
		if !validKey(k) {
			return Context{}, &UnknownKeyError{Key: k}
		}
		merged[k] = v
	}
	return Context{values: merged}, nil
}

// Values returns a copy of the set key/value pairs.
func (c Context) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// String renders the context for logs and error messages.
func (c Context) String() string {
	out := "{"
	for i, k := range Keys() {
		if i > 0 {
			out += " "
		}
		if v, ok := c.values[k]; ok {
			out += fmt.Sprintf("%s=%s", k, v)
		} else {
			out += fmt.Sprintf("%s=<unset>", k)
		}
	}
	return out + "}"
}
