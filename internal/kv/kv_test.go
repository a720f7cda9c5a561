package kv

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGormStore(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		t.Fatalf("failed to migrate kv_store table: %v", err)
	}
	return NewGormStore(db)
}

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   setupGormStore(t),
	}
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			val, found, err := store.Get(ctx, "nope")
			assert.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, val)
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			doc := json.RawMessage(`{"title":"Soup"}`)
			require.NoError(t, store.Set(ctx, "recipe:alice:1", doc))

			val, found, err := store.Get(ctx, "recipe:alice:1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.JSONEq(t, string(doc), string(val))
		})
	}
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "k", json.RawMessage(`{"v":1}`)))
			require.NoError(t, store.Set(ctx, "k", json.RawMessage(`{"v":2}`)))

			val, found, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, found)
			assert.JSONEq(t, `{"v":2}`, string(val))
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "k", json.RawMessage(`{}`)))
			assert.NoError(t, store.Delete(ctx, "k"))
			// Deleting an absent key is not an error.
			assert.NoError(t, store.Delete(ctx, "k"))

			_, found, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestScanPrefix(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "recipe:alice:1", json.RawMessage(`{"id":"1"}`)))
			require.NoError(t, store.Set(ctx, "recipe:alice:2", json.RawMessage(`{"id":"2"}`)))
			require.NoError(t, store.Set(ctx, "recipe:bob:3", json.RawMessage(`{"id":"3"}`)))

			vals, err := store.ScanPrefix(ctx, "recipe:alice:")
			require.NoError(t, err)
			assert.Len(t, vals, 2)

			ids := make(map[string]bool)
			for _, v := range vals {
				var doc struct {
					ID string `json:"id"`
				}
				require.NoError(t, json.Unmarshal(v, &doc))
				ids[doc.ID] = true
			}
			assert.True(t, ids["1"])
			assert.True(t, ids["2"])
			assert.False(t, ids["3"])
		})
	}
}

func TestScanPrefixEmpty(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			vals, err := store.ScanPrefix(ctx, "recipe:nobody:")
			assert.NoError(t, err)
			assert.Empty(t, vals)
		})
	}
}

func TestScanPrefixEscapesLikeMetacharacters(t *testing.T) {
	ctx := context.Background()
	store := setupGormStore(t)

	require.NoError(t, store.Set(ctx, "recipe:a%b:1", json.RawMessage(`{"id":"1"}`)))
	require.NoError(t, store.Set(ctx, "recipe:axb:2", json.RawMessage(`{"id":"2"}`)))

	vals, err := store.ScanPrefix(ctx, "recipe:a%b:")
	require.NoError(t, err)
	assert.Len(t, vals, 1)
}

func TestEscapeMatch(t *testing.T) {
	cases := map[string]string{
		"recipe:alice:":   "recipe:alice:",
		"recipe:a*b:":     `recipe:a\*b:`,
		"recipe:a?b:":     `recipe:a\?b:`,
		"recipe:a[x]b:":   `recipe:a\[x\]b:`,
		`recipe:a\b:`:     `recipe:a\\b:`,
		"recipe:^weird^:": `recipe:\^weird\^:`,
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeMatch(in))
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := json.RawMessage(`{"v":1}`)
	require.NoError(t, store.Set(ctx, "k", doc))
	doc[5] = '9'

	val, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":1}`, string(val))
}

func TestMemoryStoreLen(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Set(ctx, "a", json.RawMessage(`{}`)))
	require.NoError(t, store.Set(ctx, "b", json.RawMessage(`{}`)))
	require.NoError(t, store.Set(ctx, "a", json.RawMessage(`{"v":2}`)))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Delete(ctx, "a"))
	assert.Equal(t, 1, store.Len())
}
