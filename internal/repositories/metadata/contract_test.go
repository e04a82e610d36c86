package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// exerciseRepository runs the behaviour every backend must share.
func exerciseRepository(t *testing.T, r Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key is nil, nil", func(t *testing.T) {
		v, err := r.Get(ctx, "absent")
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("set many then get", func(t *testing.T) {
		require.NoError(t, r.SetMany(ctx, map[string][]byte{
			"app_state":        []byte(`{"periodHours":1}`),
			"has_seen_welcome": []byte("true"),
		}))

		v, err := r.Get(ctx, "app_state")
		require.NoError(t, err)
		require.Equal(t, []byte(`{"periodHours":1}`), v)
		v, err = r.Get(ctx, "has_seen_welcome")
		require.NoError(t, err)
		require.Equal(t, []byte("true"), v)
	})

	t.Run("set many overwrites only named keys", func(t *testing.T) {
		require.NoError(t, r.SetMany(ctx, map[string][]byte{"app_state": []byte("new")}))

		v, err := r.Get(ctx, "app_state")
		require.NoError(t, err)
		require.Equal(t, []byte("new"), v)
		v, err = r.Get(ctx, "has_seen_welcome")
		require.NoError(t, err)
		require.Equal(t, []byte("true"), v)
	})

	t.Run("empty set many is a no-op", func(t *testing.T) {
		require.NoError(t, r.SetMany(ctx, nil))
		v, err := r.Get(ctx, "app_state")
		require.NoError(t, err)
		require.Equal(t, []byte("new"), v)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		require.NoError(t, r.Clear(ctx))
		for _, k := range []string{"app_state", "has_seen_welcome"} {
			v, err := r.Get(ctx, k)
			require.NoError(t, err)
			require.Nil(t, v, k)
		}
		require.NoError(t, r.Clear(ctx))
	})
}
