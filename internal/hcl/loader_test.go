package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildforge/internal/buildctx"
)

// writeDecl is a test helper that writes one declaration file and returns
// its path.
func writeDecl(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeDecl(t, "build.hcl", `
target "corelib" "static-library" {
  sources = ["core/core.c"]

  public {
    include_paths = ["core/include"]
  }
}

target "mathlib" "static-library" {
  sources = ["math/add.c"]

  public {
    include_paths = ["math/include"]
    link          = ["corelib"]
  }

  private {
    compile_options = ["-Wall", when(eq("configuration", "Release"), "-O2")]
  }

  interface {
    definitions = [when(not(eq("platform", "Windows")), "MATH_POSIX")]
  }
}

preset "base" {
  values = { configuration = "Debug" }
}

preset "ci" {
  inherits = "base"
  values   = { platform = "Linux" }
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	t.Run("targets keep declaration order", func(t *testing.T) {
		require.Len(t, model.Targets, 2)
		assert.Equal(t, "corelib", model.Targets[0].Name)
		assert.Equal(t, "mathlib", model.Targets[1].Name)
	})

	t.Run("plain strings become unconditional entries", func(t *testing.T) {
		core := model.Targets[0]
		require.Len(t, core.Public.IncludePaths, 1)
		assert.Equal(t, "core/include", core.Public.IncludePaths[0].Value)
		assert.Nil(t, core.Public.IncludePaths[0].Cond)
	})

	t.Run("link edges carry through", func(t *testing.T) {
		assert.Equal(t, []string{"corelib"}, model.Targets[1].Public.Links)
	})

	t.Run("when builds a guarded entry", func(t *testing.T) {
		math := model.Targets[1]
		require.Len(t, math.Private.Options, 2)

		plain, guarded := math.Private.Options[0], math.Private.Options[1]
		assert.Equal(t, "-Wall", plain.Value)
		assert.Nil(t, plain.Cond)
		require.NotNil(t, guarded.Cond)

		release, err := buildctx.New(map[string]string{buildctx.KeyConfiguration: "Release"})
		require.NoError(t, err)
		v, ok, err := guarded.Resolve(release)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "-O2", v)

		debug, err := buildctx.New(map[string]string{buildctx.KeyConfiguration: "Debug"})
		require.NoError(t, err)
		_, ok, err = guarded.Resolve(debug)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("combinators survive translation", func(t *testing.T) {
		math := model.Targets[1]
		require.Len(t, math.Interface.Definitions, 1)

		linux, err := buildctx.New(map[string]string{buildctx.KeyPlatform: "Linux"})
		require.NoError(t, err)
		v, ok, err := math.Interface.Definitions[0].Resolve(linux)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "MATH_POSIX", v)
	})

	t.Run("presets carry inheritance and values", func(t *testing.T) {
		require.Len(t, model.Presets, 2)
		assert.Equal(t, "base", model.Presets[0].Name)
		ci := model.Presets[1]
		assert.Equal(t, "ci", ci.Name)
		assert.Equal(t, "base", ci.Inherits)
		assert.Equal(t, map[string]string{"platform": "Linux"}, ci.Values)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		path := writeDecl(t, "broken.hcl", `target "x" "executable" {`)
		_, err := NewLoader().Load(context.Background(), path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("condition over a key outside the closed set", func(t *testing.T) {
		path := writeDecl(t, "badkey.hcl", `
target "x" "executable" {
  sources = ["main.c"]
  private {
    compile_options = [when(eq("architecture", "arm64"), "-mfpu=neon")]
  }
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "not a build context key")
	})

	t.Run("non-entry element in a requirement list", func(t *testing.T) {
		path := writeDecl(t, "badentry.hcl", `
target "x" "executable" {
  sources = ["main.c"]
  private {
    definitions = [42]
  }
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "must be a string or when(...)")
	})
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	// Sorted path order decides file order, so "a_" loads before "b_".
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_app.hcl"), []byte(`
target "app" "executable" {
  sources = ["main.c"]
}
`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_libs.hcl"), []byte(`
target "corelib" "static-library" {
  sources = ["core.c"]
}
`), 0600))

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, model.Targets, 2)
	assert.Equal(t, "corelib", model.Targets[0].Name)
	assert.Equal(t, "app", model.Targets[1].Name)
}
