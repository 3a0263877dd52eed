package phtml

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phtml-go/phtml/execution/data"
	"github.com/phtml-go/phtml/execution/template"
	"github.com/phtml-go/phtml/machines/mocks"
	"github.com/phtml-go/phtml/machines/types"
	"github.com/phtml-go/phtml/tpl/grammar"
	"github.com/phtml-go/phtml/tpl/policy"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_Assign(t *testing.T) {
	t.Parallel()

	t.Run("single assign feeds render", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("name", "World"))

		res, err := e.Execute(context.Background(), "Hello, <?=$name?>!")
		require.NoError(t, err)
		assert.Equal(t, "Hello, World!", res.Text)
	})

	t.Run("all-digit key rejected, prior bindings kept", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("keep", "me"))
		assert.False(t, e.Assign("1234", "positional"))

		res, err := e.Execute(context.Background(), "<?=$keep?>")
		require.NoError(t, err)
		assert.Equal(t, "me", res.Text)
	})

	t.Run("bulk assign is atomic", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		assert.False(t, e.AssignMap(map[string]any{"good": 1, "99": 2}))

		res, err := e.Execute(context.Background(), "<?=@$good?>")
		require.NoError(t, err)
		assert.Equal(t, "", res.Text, "no entry of a rejected bulk call may apply")

		assert.True(t, e.AssignMap(map[string]any{"a": 1, "b": 2}))
	})

	t.Run("assign from yaml file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "vars.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: World\n"), 0o644))

		e := newEngine(t)
		require.NoError(t, e.AssignFile(path))

		res, err := e.Execute(context.Background(), "<?=$name?>")
		require.NoError(t, err)
		assert.Equal(t, "World", res.Text)
	})
}

func TestEngine_Execute_EchoBlocks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("suppressed missing variable renders empty", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, "[<?=@$missing?>]")
		require.NoError(t, err)
		assert.Equal(t, "[]", res.Text)
	})

	t.Run("unsuppressed missing variable still completes", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, "[<?=$missing?>]")
		require.NoError(t, err)
		assert.Equal(t, "[]", res.Text)
	})

	t.Run("path suffixes", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("user", map[string]any{
			"name": "Ada",
			"tags": []any{"x", "y"},
		}))

		res, err := e.Execute(ctx, "<?=$user['name']?>/<?=$user->name?>/<?=$user['tags'][1]?>")
		require.NoError(t, err)
		assert.Equal(t, "Ada/Ada/y", res.Text)
	})

	t.Run("escaper call", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("html", "<b>"))

		res, err := e.Execute(ctx, "<?= htmlspecialchars($html) ?>")
		require.NoError(t, err)
		assert.Equal(t, "&lt;b&gt;", res.Text)
	})

	t.Run("registered function with custom pattern", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, WithFunc("shout", func(args ...any) (any, error) {
			return strings.ToUpper(grammar.ToText(args[0])), nil
		}))
		require.True(t, e.Assign("word", "quiet"))

		res, err := e.Execute(ctx, "<?=shout($word)?>",
			WithAllowedCalls(regexp.MustCompile(`^shout$`)))
		require.NoError(t, err)
		assert.Equal(t, "QUIET", res.Text)

		// The default pattern does not admit the name, so the block fails
		// validation and degrades per mode instead.
		res, err = e.Execute(ctx, "<?=shout($word)?>", WithMode(policy.Remove))
		require.NoError(t, err)
		assert.Equal(t, "", res.Text)
	})

	t.Run("per-call bindings override instance bindings", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("name", "Instance"))

		res, err := e.Execute(ctx, "<?=$name?>", WithBindings(map[string]any{"name": "Call"}))
		require.NoError(t, err)
		assert.Equal(t, "Call", res.Text)

		res, err = e.Execute(ctx, "<?=$name?>")
		require.NoError(t, err)
		assert.Equal(t, "Instance", res.Text, "per-call bindings must not stick")
	})

	t.Run("invalid per-call bindings rejected", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.Execute(ctx, "x", WithBindings(map[string]any{"99": "bad"}))
		assert.ErrorIs(t, err, data.ErrKeyAllDigits)
	})
}

func TestEngine_Execute_Modes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	failing := "a<?= $x; $y=1 ?>b"

	t.Run("preserve is the default", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, failing)
		require.NoError(t, err)
		assert.Equal(t, failing, res.Text)
	})

	t.Run("remove yields empty replacement", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, failing, WithMode(policy.Remove))
		require.NoError(t, err)
		assert.Equal(t, "ab", res.Text)
	})

	t.Run("htmlquote escapes delimiters and content", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, failing, WithMode(policy.HTMLQuote))
		require.NoError(t, err)
		assert.Equal(t, "a&lt;?= $x; $y=1 ?&gt;b", res.Text)
	})

	t.Run("modes are deterministic", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		for _, m := range []policy.Mode{policy.Remove, policy.Preserve, policy.HTMLQuote} {
			first, err := e.Execute(ctx, failing, WithMode(m))
			require.NoError(t, err)
			second, err := e.Execute(ctx, failing, WithMode(m))
			require.NoError(t, err)
			assert.Equal(t, first.Text, second.Text, "mode %s", m)
		}
	})

	t.Run("nocheck propagates malformed echo", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.Execute(ctx, failing, WithMode(policy.NoCheck))
		assert.ErrorIs(t, err, grammar.ErrSyntax)
	})

	t.Run("nocheck delimiter round trip", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("x", "val"))

		shorthand, err := e.Execute(ctx, "a <?=$x?> b", WithMode(policy.NoCheck))
		require.NoError(t, err)
		primary, err := e.Execute(ctx, "a <?php=$x?> b", WithMode(policy.NoCheck))
		require.NoError(t, err)
		assert.Equal(t, shorthand.Text, primary.Text)
	})

	t.Run("unknown mode is a configuration error", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.Execute(ctx, "anything", WithMode(policy.Mode(42)))
		assert.ErrorIs(t, err, policy.ErrUnknownMode)
	})
}

func TestEngine_Valid(t *testing.T) {
	t.Parallel()

	t.Run("acceptance table", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)

		assert.True(t, e.Valid("<?=$x?>"))
		assert.True(t, e.Valid("<?=$x['key']?>"))
		assert.True(t, e.Valid("<?=$obj->prop?>"))
		assert.True(t, e.Valid("<?=f($x, 'a')?>", WithAllowedCalls(regexp.MustCompile(`^f$`))))
		assert.False(t, e.Valid("<?=f($x, 'a')?>"))
		assert.False(t, e.Valid("<?=$x; $y=1?>"))
	})

	t.Run("non-echo blocks pass unchecked", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		assert.True(t, e.Valid("<?php anything at all ?>"))
		assert.True(t, e.Valid("plain text, no blocks"))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		for _, text := range []string{"<?=$x?>", "<?=$x; $y=1?>", "mixed <?=$a?> and <?=bad(?>"} {
			assert.Equal(t, e.Valid(text), e.Valid(text), "text %q", text)
		}
	})

	t.Run("check-only execute reports verdict", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)

		res, err := e.Execute(context.Background(), "<?=$x?>", CheckOnly())
		require.NoError(t, err)
		assert.Empty(t, res.Text)

		_, err = e.Execute(context.Background(), "<?=$x; $y=1?>", CheckOnly())
		assert.ErrorIs(t, err, ErrCheckFailed)
	})
}

func TestEngine_CodeBlocks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("structured map result halts and discards capture", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, `before <?php {"done": true} ?> after`)
		require.NoError(t, err)

		require.True(t, res.HasValue())
		assert.Empty(t, res.Text)

		got, ok := res.Value.Interface().(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, got["done"])
	})

	t.Run("structured bool result halts", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, "text <?php true ?> more")
		require.NoError(t, err)

		require.True(t, res.HasValue())
		assert.Equal(t, true, res.Value.Interface())
	})

	t.Run("scalar results are discarded", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, "a<?php 1 + 2 ?>b")
		require.NoError(t, err)
		assert.False(t, res.HasValue())
		assert.Equal(t, "ab", res.Text)
	})

	t.Run("empty code block is a no-op", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		res, err := e.Execute(ctx, "a<?php   ?>b")
		require.NoError(t, err)
		assert.Equal(t, "ab", res.Text)
	})

	t.Run("execution failure propagates", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.Execute(ctx, "<?php 1 ++++ nonsense ?>")
		assert.Error(t, err)
	})

	t.Run("code blocks see bound variables", func(t *testing.T) {
		t.Parallel()
		runner := &mocks.Runner{Value: nil}
		e := newEngine(t, WithCodeRunner(runner))
		require.True(t, e.Assign("name", "World"))

		_, err := e.Execute(ctx, "<?php use_scope() ?>")
		require.NoError(t, err)

		call, ok := runner.LastCall()
		require.True(t, ok)
		assert.Equal(t, "use_scope()", call.Source)
		assert.Equal(t, "World", call.Scope["name"])
	})

	t.Run("reserved names are filtered from the scope", func(t *testing.T) {
		t.Parallel()
		runner := &mocks.Runner{}
		e := newEngine(t, WithCodeRunner(runner))
		require.True(t, e.Assign("ctx", "hijack"), "the name itself is a legal identifier")
		require.True(t, e.Assign("eval_data", "hijack"))
		require.True(t, e.Assign("safe", "kept"))

		_, err := e.Execute(ctx, "<?php x ?>")
		require.NoError(t, err)

		call, ok := runner.LastCall()
		require.True(t, ok)
		assert.NotContains(t, call.Scope, "ctx")
		assert.NotContains(t, call.Scope, "eval_data")
		assert.Equal(t, "kept", call.Scope["safe"])
	})

	t.Run("injected runner error propagates", func(t *testing.T) {
		t.Parallel()
		runner := &mocks.Runner{Err: assert.AnError}
		e := newEngine(t, WithCodeRunner(runner))

		_, err := e.Execute(ctx, "<?php boom ?>")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("starlark machine selectable", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, WithMachine(types.Starlark))
		res, err := e.Execute(ctx, `<?php result = {"ok": True} ?>`)
		require.NoError(t, err)
		require.True(t, res.HasValue())
	})

	t.Run("expr machine selectable", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, WithMachine(types.Expr))
		res, err := e.Execute(ctx, "x<?php 1 > 2 ?>y")
		require.NoError(t, err)
		require.True(t, res.HasValue())
		assert.Equal(t, false, res.Value.Interface())
	})
}

func TestEngine_Render(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	writeTemplate := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "page.phtml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("renders file with instance bindings", func(t *testing.T) {
		t.Parallel()
		path := writeTemplate(t, "Hello, <?=$name?>!")
		e := newEngine(t)
		require.True(t, e.Assign("name", "World"))

		res, err := e.Render(ctx, path, nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello, World!", res.Text)
	})

	t.Run("configured default path", func(t *testing.T) {
		t.Parallel()
		path := writeTemplate(t, "<?=$x?>")
		e := newEngine(t, WithTemplateFile(path))
		require.True(t, e.Assign("x", "configured"))

		res, err := e.Render(ctx, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "configured", res.Text)
	})

	t.Run("call bindings override instance bindings", func(t *testing.T) {
		t.Parallel()
		path := writeTemplate(t, "<?=$who?>")
		e := newEngine(t)
		require.True(t, e.Assign("who", "instance"))

		res, err := e.Render(ctx, path, map[string]any{"who": "call"})
		require.NoError(t, err)
		assert.Equal(t, "call", res.Text)
	})

	t.Run("missing file fails loudly", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.Render(ctx, filepath.Join(t.TempDir(), "gone.phtml"), nil)
		assert.ErrorIs(t, err, template.ErrTemplateMissing)
	})

	t.Run("no path anywhere fails loudly", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.Render(ctx, "", nil)
		assert.ErrorIs(t, err, template.ErrTemplateMissing)
	})
}

func TestEngine_Capture(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("manual session around execute", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.True(t, e.Assign("name", "World"))

		e.BeginCapture()
		res, err := e.Execute(ctx, "Hello, <?=$name?>!")
		require.NoError(t, err)

		got, err := e.EndCapture(func(text string) (string, bool) {
			return strings.ToUpper(text), true
		})
		require.NoError(t, err)

		// The execute call manages its own nested region; the manual
		// session only sees what the caller writes into it.
		assert.Equal(t, "Hello, World!", res.Text)
		assert.Equal(t, "", got)
	})

	t.Run("end without begin", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		_, err := e.EndCapture()
		assert.Error(t, err)
	})

	t.Run("region released when execution fails", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)

		_, err := e.Execute(ctx, "<?php 1 ++++ nonsense ?>")
		require.Error(t, err)

		// A leaked region would swallow this error.
		_, err = e.EndCapture()
		assert.Error(t, err, "no region may remain active after a failed execute")
	})

	t.Run("region released when structured result halts", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)

		res, err := e.Execute(ctx, "discarded <?php true ?>")
		require.NoError(t, err)
		require.True(t, res.HasValue())

		_, err = e.EndCapture()
		assert.Error(t, err)
	})
}

func TestEngine_DataProvider(t *testing.T) {
	t.Parallel()

	t.Run("extra provider overlays bindings", func(t *testing.T) {
		t.Parallel()
		provider := data.NewStaticProvider(map[string]any{"env": "prod"})
		e := newEngine(t, WithDataProvider(provider))
		require.True(t, e.Assign("name", "World"))

		res, err := e.Execute(context.Background(), "<?=$name?>@<?=$env?>")
		require.NoError(t, err)
		assert.Equal(t, "World@prod", res.Text)
	})
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	t.Run("nil handler rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(WithLogHandler(nil))
		assert.Error(t, err)
	})

	t.Run("nil runner rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(WithCodeRunner(nil))
		assert.Error(t, err)
	})

	t.Run("unknown machine rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(WithMachine(types.Type("wasm")))
		assert.Error(t, err)
	})

	t.Run("invalid function registration rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(WithFunc("", nil))
		assert.Error(t, err)
	})
}
