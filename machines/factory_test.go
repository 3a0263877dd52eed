package machines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phtml-go/phtml/machines/types"
)

func TestNewRunner(t *testing.T) {
	t.Parallel()

	t.Run("known machine types", func(t *testing.T) {
		t.Parallel()
		for _, mt := range []types.Type{types.Risor, types.Starlark, types.Expr} {
			runner, err := NewRunner(nil, mt)
			require.NoError(t, err, "machine %s", mt)
			require.NotNil(t, runner)

			resp, err := runner.RunCode(context.Background(), "1 + 2", nil)
			if mt == types.Starlark {
				// Starlark programs return via the result convention.
				resp, err = runner.RunCode(context.Background(), "result = 1 + 2", nil)
			}
			require.NoError(t, err)
			assert.NotNil(t, resp.Interface())
		}
	})

	t.Run("unknown machine type", func(t *testing.T) {
		t.Parallel()
		_, err := NewRunner(nil, types.Type("wasm"))
		assert.ErrorIs(t, err, ErrInvalidMachineType)
	})
}
