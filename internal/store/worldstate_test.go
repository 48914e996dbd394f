package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roleplaychat/pkg/worldstate"
)

func newTestWorldStateStore(t *testing.T) (*WorldStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWorldStateStore(client, slog.Default()), mr
}

func TestWorldStateStoreRoundTrip(t *testing.T) {
	s, _ := newTestWorldStateStore(t)
	ctx := context.Background()

	doc := worldstate.Document{}
	doc.Entity(worldstate.EntityCharacter).SetText("mood", "cheerful")

	require.NoError(t, s.Put(ctx, 12, doc))

	got, err := s.Get(ctx, 12)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cheerful", got[worldstate.EntityCharacter].Text("mood"))
}

func TestWorldStateStoreGetMissing(t *testing.T) {
	s, _ := newTestWorldStateStore(t)

	got, err := s.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorldStateStoreMigratesLegacyOnRead(t *testing.T) {
	s, mr := newTestWorldStateStore(t)

	mr.Set("worldstate:12", `{
		"worldState": {
			"character": {
				"mood": "wary",
				"clothes": [{"name": "cloak", "description": "hooded cloak"}]
			}
		}
	}`)

	got, err := s.Get(context.Background(), 12)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wary", got[worldstate.EntityCharacter].Text("mood"))
	assert.Len(t, got[worldstate.EntityCharacter].List("clothes"), 1)
}

func TestWorldStateStorePutPreservesExtraKeys(t *testing.T) {
	s, mr := newTestWorldStateStore(t)
	ctx := context.Background()

	mr.Set("worldstate:12", `{"legacyField": "kept", "worldState": {}}`)

	doc := worldstate.Document{}
	doc.Entity(worldstate.EntityUser).SetText("position", "by the door")
	require.NoError(t, s.Put(ctx, 12, doc))

	raw, err := mr.Get("worldstate:12")
	require.NoError(t, err)
	assert.Contains(t, raw, `"legacyField":"kept"`)

	got, err := s.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "by the door", got[worldstate.EntityUser].Text("position"))
}

func TestWorldStateStoreCorruptBlobTreatedAsAbsent(t *testing.T) {
	s, mr := newTestWorldStateStore(t)

	mr.Set("worldstate:12", "not json")

	got, err := s.Get(context.Background(), 12)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorldStateStoreDelete(t *testing.T) {
	s, _ := newTestWorldStateStore(t)
	ctx := context.Background()

	doc := worldstate.DefaultDocument()
	require.NoError(t, s.Put(ctx, 12, doc))
	require.NoError(t, s.Delete(ctx, 12))

	got, err := s.Get(ctx, 12)
	require.NoError(t, err)
	assert.Nil(t, got)
}
