package grammar

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Title string
	Count int
}

func evalBody(t *testing.T, ev *Evaluator, body string, scope map[string]any) (any, error) {
	t.Helper()
	expr, err := Parse(body, regexp.MustCompile(`^\w+$`))
	require.NoError(t, err)
	return ev.Eval(expr, scope)
}

func TestEvaluator_Eval(t *testing.T) {
	t.Parallel()
	ev := NewEvaluator(nil, nil)

	scope := map[string]any{
		"name": "World",
		"n":    42,
		"user": map[string]any{
			"email": "a@b.c",
			"tags":  []any{"x", "y"},
		},
		"items": []any{"first", "second"},
		"page":  &page{Title: "Home", Count: 3},
		"assoc": map[string]any{"0": "zero", "1": "one"},
	}

	t.Run("literals", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			body string
			want any
		}{
			{"'hello'", "hello"},
			{"42", int64(42)},
			{"-1.5", float64(-1.5)},
			{"true", true},
			{"false", false},
			{"null", nil},
		}
		for _, tc := range cases {
			got, err := evalBody(t, ev, tc.body, scope)
			require.NoError(t, err, "body %q", tc.body)
			assert.Equal(t, tc.want, got, "body %q", tc.body)
		}
	})

	t.Run("variable lookup", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$name", scope)
		require.NoError(t, err)
		assert.Equal(t, "World", got)
	})

	t.Run("key suffix", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$user['email']", scope)
		require.NoError(t, err)
		assert.Equal(t, "a@b.c", got)
	})

	t.Run("element suffix", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$items[1]", scope)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("digit key against associative value", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$assoc[1]", scope)
		require.NoError(t, err)
		assert.Equal(t, "one", got)
	})

	t.Run("property via map entry", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$user->email", scope)
		require.NoError(t, err)
		assert.Equal(t, "a@b.c", got)
	})

	t.Run("property via struct field", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$page->Title", scope)
		require.NoError(t, err)
		assert.Equal(t, "Home", got)

		// Template-style lowercase names reach exported fields.
		got, err = evalBody(t, ev, "$page->count", scope)
		require.NoError(t, err)
		assert.Equal(t, 3, got)
	})

	t.Run("chained suffixes", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$user['tags'][0]", scope)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	})

	t.Run("missing variable resolves to null", func(t *testing.T) {
		t.Parallel()
		got, err := evalBody(t, ev, "$missing", scope)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = evalBody(t, ev, "@$missing", scope)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("missing path step resolves to null", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{"$user['nope']", "$items[9]", "$name->prop", "$n[0]"} {
			got, err := evalBody(t, ev, body, scope)
			require.NoError(t, err, "body %q", body)
			assert.Nil(t, got, "body %q", body)
		}
	})
}

func TestEvaluator_Calls(t *testing.T) {
	t.Parallel()

	t.Run("built-in escapers", func(t *testing.T) {
		t.Parallel()
		ev := NewEvaluator(nil, nil)
		scope := map[string]any{"html": `<b>&"bold"</b>`}

		got, err := evalBody(t, ev, "htmlspecialchars($html)", scope)
		require.NoError(t, err)
		assert.Equal(t, "&lt;b&gt;&amp;&#34;bold&#34;&lt;/b&gt;", got)

		got2, err := evalBody(t, ev, "htmlentities($html)", scope)
		require.NoError(t, err)
		assert.Equal(t, got, got2)
	})

	t.Run("registered function", func(t *testing.T) {
		t.Parallel()
		ev := NewEvaluator(nil, map[string]Func{
			"upper": func(args ...any) (any, error) {
				return "UP:" + ToText(args[0]), nil
			},
		})

		got, err := evalBody(t, ev, "upper($x)", map[string]any{"x": "low"})
		require.NoError(t, err)
		assert.Equal(t, "UP:low", got)
	})

	t.Run("nested call arguments", func(t *testing.T) {
		t.Parallel()
		ev := NewEvaluator(nil, nil)

		got, err := evalBody(t, ev, "htmlspecialchars(htmlentities($x))",
			map[string]any{"x": "<a>"})
		require.NoError(t, err)
		assert.Equal(t, "&amp;lt;a&amp;gt;", got)
	})

	t.Run("unregistered function", func(t *testing.T) {
		t.Parallel()
		ev := NewEvaluator(nil, nil)

		_, err := evalBody(t, ev, "unregistered($x)", map[string]any{})
		assert.ErrorIs(t, err, ErrUnknownFunction)
	})

	t.Run("call failure propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		ev := NewEvaluator(nil, map[string]Func{
			"fail": func(...any) (any, error) { return nil, boom },
		})

		_, err := evalBody(t, ev, "fail($x)", map[string]any{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestToText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "s", "s"},
		{"bool", true, "true"},
		{"int", 7, "7"},
		{"int64", int64(-7), "-7"},
		{"float", 2.5, "2.5"},
		{"float without trailing zeros", 3.0, "3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ToText(tc.in))
		})
	}
}
