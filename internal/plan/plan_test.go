package plan

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildforge/internal/buildctx"
	"github.com/vk/buildforge/internal/config"
	"github.com/vk/buildforge/internal/expr"
	"github.com/vk/buildforge/internal/registry"
	"github.com/vk/buildforge/internal/resolve"
)

// genWith is a test helper wiring a registry, resolver, and generator.
func genWith(t *testing.T, workers int, targets ...*config.Target) *Generator {
	t.Helper()
	reg := registry.New()
	for _, tgt := range targets {
		require.NoError(t, reg.Register(tgt))
	}
	return New(reg, resolve.New(reg), workers)
}

func ctxWith(t *testing.T, values map[string]string) buildctx.Context {
	t.Helper()
	c, err := buildctx.New(values)
	require.NoError(t, err)
	return c
}

// The classic three-target shape: app privately links mathlib, which
// publicly links corelib.
func appMathCore() []*config.Target {
	return []*config.Target{
		{
			Name:    "corelib",
			Kind:    config.StaticLibrary,
			Sources: []string{"core/core.c"},
			Public:  config.Requirements{IncludePaths: []expr.Entry{expr.Lit("core/include")}},
		},
		{
			Name:    "mathlib",
			Kind:    config.StaticLibrary,
			Sources: []string{"math/add.c", "math/mul.c"},
			Public: config.Requirements{
				IncludePaths: []expr.Entry{expr.Lit("math/include")},
				Links:        []string{"corelib"},
			},
		},
		{
			Name:    "app",
			Kind:    config.Executable,
			Sources: []string{"app/main.c"},
			Private: config.Requirements{Links: []string{"mathlib"}},
		},
	}
}

func TestGenerate(t *testing.T) {
	g := genWith(t, 1, appMathCore()...)
	entries, err := g.Generate(context.Background(), []string{"app"}, ctxWith(t, nil))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	t.Run("dependencies are ordered before dependents", func(t *testing.T) {
		assert.Equal(t, "corelib", entries[0].Name)
		assert.Equal(t, "mathlib", entries[1].Name)
		assert.Equal(t, "app", entries[2].Name)
	})

	t.Run("link order lists the furthest dependency first", func(t *testing.T) {
		app := entries[2]
		assert.Equal(t, []string{"corelib", "mathlib"}, app.Links)
	})

	t.Run("transitive include paths reach the top", func(t *testing.T) {
		app := entries[2]
		assert.Equal(t, []string{"math/include", "core/include"}, app.IncludePaths)
	})

	t.Run("sources and kind carry through", func(t *testing.T) {
		assert.Equal(t, config.StaticLibrary, entries[1].Kind)
		assert.Equal(t, []string{"math/add.c", "math/mul.c"}, entries[1].Sources)
	})
}

func TestTopologicalTieBreak(t *testing.T) {
	// Two independent roots: ties resolve by declaration order, not by
	// request order.
	a := &config.Target{Name: "a", Kind: config.StaticLibrary}
	b := &config.Target{Name: "b", Kind: config.StaticLibrary}

	g := genWith(t, 1, a, b)
	entries, err := g.Generate(context.Background(), []string{"b", "a"}, ctxWith(t, nil))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "b", entries[1].Name)
}

func TestConditionalOptions(t *testing.T) {
	lib := &config.Target{
		Name:    "lib",
		Kind:    config.StaticLibrary,
		Sources: []string{"lib.c"},
		Private: config.Requirements{
			Options: []expr.Entry{
				expr.Lit("-Wall"),
				expr.When(expr.Equals{Key: buildctx.KeyConfiguration, Value: "Release"}, "-O2"),
			},
		},
	}

	t.Run("guard holds", func(t *testing.T) {
		g := genWith(t, 1, lib)
		entries, err := g.Generate(context.Background(), []string{"lib"},
			ctxWith(t, map[string]string{buildctx.KeyConfiguration: "Release"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"-Wall", "-O2"}, entries[0].CompileOptions)
	})

	t.Run("guard does not hold", func(t *testing.T) {
		g := genWith(t, 1, lib)
		entries, err := g.Generate(context.Background(), []string{"lib"},
			ctxWith(t, map[string]string{buildctx.KeyConfiguration: "Debug"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"-Wall"}, entries[0].CompileOptions)
	})

	t.Run("unset key fails on first use", func(t *testing.T) {
		g := genWith(t, 1, lib)
		_, err := g.Generate(context.Background(), []string{"lib"}, ctxWith(t, nil))
		var unknown *buildctx.UnknownKeyError
		require.ErrorAs(t, err, &unknown)
		assert.True(t, unknown.Unset)
	})
}

func TestInterfaceOnlyTargets(t *testing.T) {
	headers := &config.Target{
		Name: "headers",
		Kind: config.InterfaceOnly,
		Interface: config.Requirements{
			IncludePaths: []expr.Entry{expr.Lit("headers/include")},
			Links:        []string{"corelib"},
		},
	}
	corelib := &config.Target{
		Name:    "corelib",
		Kind:    config.StaticLibrary,
		Sources: []string{"core.c"},
	}
	app := &config.Target{
		Name:    "app",
		Kind:    config.Executable,
		Sources: []string{"main.c"},
		Private: config.Requirements{Links: []string{"headers"}},
	}

	g := genWith(t, 1, headers, corelib, app)
	entries, err := g.Generate(context.Background(), []string{"app"}, ctxWith(t, nil))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	appEntry := entries[2]
	require.Equal(t, "app", appEntry.Name)

	// The interface-only target contributes its requirements but never
	// appears as a link artifact itself.
	assert.Equal(t, []string{"headers/include"}, appEntry.IncludePaths)
	assert.Equal(t, []string{"corelib"}, appEntry.Links)
}

func TestDiamondLinkOrder(t *testing.T) {
	base := &config.Target{Name: "base", Kind: config.StaticLibrary, Sources: []string{"base.c"}}
	left := &config.Target{Name: "left", Kind: config.StaticLibrary, Sources: []string{"l.c"},
		Public: config.Requirements{Links: []string{"base"}}}
	right := &config.Target{Name: "right", Kind: config.StaticLibrary, Sources: []string{"r.c"},
		Public: config.Requirements{Links: []string{"base"}}}
	app := &config.Target{Name: "app", Kind: config.Executable, Sources: []string{"main.c"},
		Private: config.Requirements{Links: []string{"left", "right"}}}

	g := genWith(t, 1, base, left, right, app)
	entries, err := g.Generate(context.Background(), []string{"app"}, ctxWith(t, nil))
	require.NoError(t, err)

	appEntry := entries[len(entries)-1]
	require.Equal(t, "app", appEntry.Name)
	assert.Equal(t, []string{"base", "left", "right"}, appEntry.Links)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("unknown requested target", func(t *testing.T) {
		g := genWith(t, 1)
		_, err := g.Generate(context.Background(), []string{"ghost"}, ctxWith(t, nil))
		var unknown *registry.UnknownTargetError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "ghost", unknown.Name)
	})

	t.Run("cycle surfaces with the full path", func(t *testing.T) {
		a := &config.Target{Name: "a", Kind: config.StaticLibrary,
			Public: config.Requirements{Links: []string{"b"}}}
		b := &config.Target{Name: "b", Kind: config.StaticLibrary,
			Public: config.Requirements{Links: []string{"c"}}}
		c := &config.Target{Name: "c", Kind: config.StaticLibrary,
			Public: config.Requirements{Links: []string{"a"}}}

		for _, root := range []string{"a", "b", "c"} {
			g := genWith(t, 1, a, b, c)
			_, err := g.Generate(context.Background(), []string{root}, ctxWith(t, nil))
			var cycle *resolve.CycleError
			require.ErrorAs(t, err, &cycle, "root %s", root)
			assert.NotEmpty(t, cycle.Path)
		}
	})

	t.Run("dangling edge surfaces at generation time", func(t *testing.T) {
		app := &config.Target{Name: "app", Kind: config.Executable,
			Private: config.Requirements{Links: []string{"ghost"}}}
		g := genWith(t, 1, app)
		_, err := g.Generate(context.Background(), []string{"app"}, ctxWith(t, nil))
		var unknown *registry.UnknownTargetError
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestDeterminism(t *testing.T) {
	bctx := ctxWith(t, map[string]string{buildctx.KeyConfiguration: "Release"})

	t.Run("identical inputs yield byte-identical plans", func(t *testing.T) {
		g := genWith(t, 1, appMathCore()...)
		first, err := g.Generate(context.Background(), []string{"app"}, bctx)
		require.NoError(t, err)
		second, err := g.Generate(context.Background(), []string{"app"}, bctx)
		require.NoError(t, err)

		firstJSON, err := json.Marshal(first)
		require.NoError(t, err)
		secondJSON, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, firstJSON, secondJSON)
	})

	t.Run("parallel evaluation matches sequential", func(t *testing.T) {
		sequential := genWith(t, 1, appMathCore()...)
		parallel := genWith(t, 8, appMathCore()...)

		want, err := sequential.Generate(context.Background(), []string{"app"}, bctx)
		require.NoError(t, err)
		got, err := parallel.Generate(context.Background(), []string{"app"}, bctx)
		require.NoError(t, err)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("plan mismatch (-want +got):\n%s", diff)
		}
	})
}
