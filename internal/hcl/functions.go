package hcl

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/buildforge/internal/buildctx"
	"github.com/vk/buildforge/internal/expr"
)

// condType carries an expr.Cond built by the condition constructors through
// HCL evaluation.
var condType = cty.Capsule("condition", reflect.TypeOf((*expr.Cond)(nil)).Elem())

// entryType carries a conditional requirement entry built by when().
var entryType = cty.Capsule("conditional entry", reflect.TypeOf(expr.Entry{}))

// condOf unwraps a condition capsule value.
func condOf(v cty.Value) expr.Cond {
	return *(v.EncapsulatedValue().(*expr.Cond))
}

func condVal(c expr.Cond) cty.Value {
	return cty.CapsuleVal(condType, &c)
}

// eqFunc builds an equality predicate over one build context key. The key
// is checked against the closed key set here, at declaration load time, so
// authors learn about typos before any plan is generated.
var eqFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "key", Type: cty.String},
		{Name: "value", Type: cty.String},
	},
	Type: function.StaticReturnType(condType),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		key := args[0].AsString()
		if !slices.Contains(buildctx.Keys(), key) {
			return cty.NilVal, &buildctx.UnknownKeyError{Key: key}
		}
		return condVal(expr.Equals{Key: key, Value: args[1].AsString()}), nil
	},
})

var allFunc = function.New(&function.Spec{
	VarParam: &function.Parameter{Name: "conditions", Type: condType},
	Type:     function.StaticReturnType(condType),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		conds := make(expr.All, len(args))
		for i, a := range args {
			conds[i] = condOf(a)
		}
		return condVal(conds), nil
	},
})

var anyFunc = function.New(&function.Spec{
	VarParam: &function.Parameter{Name: "conditions", Type: condType},
	Type:     function.StaticReturnType(condType),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		conds := make(expr.Any, len(args))
		for i, a := range args {
			conds[i] = condOf(a)
		}
		return condVal(conds), nil
	},
})

var notFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "condition", Type: condType},
	},
	Type: function.StaticReturnType(condType),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return condVal(expr.Not{Cond: condOf(args[0])}), nil
	},
})

// whenFunc wraps a payload value with a condition guard.
var whenFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "condition", Type: condType},
		{Name: "value", Type: cty.String},
	},
	Type: function.StaticReturnType(entryType),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		e := expr.When(condOf(args[0]), args[1].AsString())
		return cty.CapsuleVal(entryType, &e), nil
	},
})

// evalContext returns the eval context declaration files are decoded
// against: no variables, only the condition constructors.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"eq":   eqFunc,
			"all":  allFunc,
			"any":  anyFunc,
			"not":  notFunc,
			"when": whenFunc,
		},
	}
}

// entryList evaluates a requirement list attribute into entries. Plain
// strings become unconditional entries; when(...) results pass through.
func entryList(e hcl.Expression, evalCtx *hcl.EvalContext) ([]expr.Entry, error) {
	if e == nil {
		return nil, nil
	}
	v, diags := e.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("expected a list of entries, got %s", v.Type().FriendlyName())
	}

	var out []expr.Entry
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		switch {
		case ev.Type() == cty.String:
			out = append(out, expr.Lit(ev.AsString()))
		case ev.Type().Equals(entryType):
			out = append(out, *(ev.EncapsulatedValue().(*expr.Entry)))
		default:
			return nil, fmt.Errorf("entry must be a string or when(...), got %s", ev.Type().FriendlyName())
		}
	}
	return out, nil
}
