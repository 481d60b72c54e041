package loyalty

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := tempFileStore(t)

	require.NoError(t, store.Save(ctx, "aaa.bbb.ccc"))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", got)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"aaa.bbb.ccc"}`, string(data))

	require.NoError(t, store.Save(ctx, "ddd.eee.fff"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ddd.eee.fff", got)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(store.Path()), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStore_LoadFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		store := tempFileStore(t)
		_, err := store.Load(ctx)
		assert.True(t, IsKind(err, KindStore))
	})

	t.Run("invalid json", func(t *testing.T) {
		store := tempFileStore(t)
		require.NoError(t, writeFile(store.Path(), "token=abc"))
		_, err := store.Load(ctx)
		assert.True(t, IsKind(err, KindParseFailure))
	})

	t.Run("json without token", func(t *testing.T) {
		store := tempFileStore(t)
		require.NoError(t, writeFile(store.Path(), `{"other":1}`))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewRedisStore(StoreConfig{RedisAddr: mr.Addr(), RedisKey: "test:token"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, "aaa.bbb.ccc"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", got)

	raw, err := mr.Get("test:token")
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", raw)
}

func TestRedisStore_RequiresAddress(t *testing.T) {
	_, err := NewRedisStore(StoreConfig{})
	assert.True(t, IsKind(err, KindConfig))
}

func TestSQLiteStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:tokens-%d?mode=memory&cache=shared", time.Now().UnixNano())

	store, err := NewSQLiteStore(StoreConfig{SQLiteDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, "aaa.bbb.ccc"))
	require.NoError(t, store.Save(ctx, "ddd.eee.fff"))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ddd.eee.fff", got)

	other, err := newSQLiteStore(store.db, "other")
	require.NoError(t, err)
	got, err = other.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewTokenStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	tests := []struct {
		name    string
		cfg     StoreConfig
		want    any
		wantErr Kind
	}{
		{name: "default is file", cfg: StoreConfig{Path: filepath.Join(t.TempDir(), "t.json")}, want: &FileStore{}},
		{name: "file without path", cfg: StoreConfig{Driver: DriverFile}, wantErr: KindConfig},
		{name: "redis", cfg: StoreConfig{Driver: DriverRedis, RedisAddr: mr.Addr()}, want: &RedisStore{}},
		{name: "sqlite", cfg: StoreConfig{Driver: DriverSQLite, SQLiteDSN: fmt.Sprintf("file:factory-%d?mode=memory&cache=shared", time.Now().UnixNano())}, want: &SQLiteStore{}},
		{name: "unknown", cfg: StoreConfig{Driver: "etcd"}, wantErr: KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewTokenStore(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsKind(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			assert.IsType(t, tt.want, store)
		})
	}
}
