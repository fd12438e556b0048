package sessionsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func TestNewStore(t *testing.T) {
	_, err := sessionsvc.NewStore(sessionsvc.StoreConfig{MaxSize: -1})
	assert.Error(t, err)

	_, err = sessionsvc.NewStore(sessionsvc.StoreConfig{MaxIdle: -time.Second})
	assert.Error(t, err)
}

func TestStore_Isolation(t *testing.T) {
	ctx := context.Background()

	store, err := sessionsvc.NewStore(sessionsvc.StoreConfig{})
	require.NoError(t, err)

	idA, a := store.Create()
	idB, b := store.Create()
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, 2, store.Len())

	require.NoError(t, a.Submit(ctx, "a@example.com", "secret"))
	assert.True(t, a.Authenticated())
	assert.False(t, b.Authenticated())

	got, ok := store.Get(idA)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = store.Get("unknown")
	assert.False(t, ok)
}

func TestStore_GetOrCreate(t *testing.T) {
	store, err := sessionsvc.NewStore(sessionsvc.StoreConfig{})
	require.NoError(t, err)

	id, session, created := store.GetOrCreate("")
	assert.True(t, created)
	assert.NotEmpty(t, id)

	sameID, same, created := store.GetOrCreate(id)
	assert.False(t, created)
	assert.Equal(t, id, sameID)
	assert.Same(t, session, same)

	otherID, _, created := store.GetOrCreate("stale-cookie")
	assert.True(t, created)
	assert.NotEqual(t, "stale-cookie", otherID)
}

func TestStore_MaxSize(t *testing.T) {
	ctx := context.Background()

	store, err := sessionsvc.NewStore(sessionsvc.StoreConfig{MaxSize: 2})
	require.NoError(t, err)

	idA, a := store.Create()
	require.NoError(t, a.Submit(ctx, "a@example.com", "secret"))

	idB, _ := store.Create()

	// touch a, so b becomes the least recently used
	_, ok := store.Get(idA)
	require.True(t, ok)

	idC, _ := store.Create()
	assert.Equal(t, 2, store.Len())

	_, ok = store.Get(idB)
	assert.False(t, ok)

	_, ok = store.Get(idA)
	assert.True(t, ok)

	_, ok = store.Get(idC)
	assert.True(t, ok)
}

func TestStore_MaxIdle(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2022, 11, 1, 10, 0, 0, 0, time.UTC)}

	store, err := sessionsvc.NewStore(sessionsvc.StoreConfig{
		MaxIdle: 10 * time.Minute,
		Now:     clock.Now,
	})
	require.NoError(t, err)

	id, session := store.Create()
	require.NoError(t, session.Submit(ctx, "me@example.com", "secret"))

	clock.now = clock.now.Add(9 * time.Minute)
	_, ok := store.Get(id)
	require.True(t, ok)

	clock.now = clock.now.Add(11 * time.Minute)
	_, ok = store.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	// credentials of evicted session are dropped
	_, err = session.Current()
	assert.ErrorIs(t, err, sessionsvc.ErrNotAuthenticated)
}

func TestStore_RemoveAndClose(t *testing.T) {
	ctx := context.Background()

	store, err := sessionsvc.NewStore(sessionsvc.StoreConfig{})
	require.NoError(t, err)

	idA, a := store.Create()
	require.NoError(t, a.Submit(ctx, "a@example.com", "secret"))
	store.Remove(idA)
	store.Remove(idA)
	assert.False(t, a.Authenticated())

	_, b := store.Create()
	require.NoError(t, b.Submit(ctx, "b@example.com", "secret"))
	assert.NoError(t, store.Close())
	assert.False(t, b.Authenticated())
	assert.Equal(t, 0, store.Len())
}

func TestStore_VerifierPassedToSessions(t *testing.T) {
	called := 0
	store, err := sessionsvc.NewStore(sessionsvc.StoreConfig{
		Verifier: sessionsvc.VerifierFunc(func(ctx context.Context, creds sessionsvc.Credentials) error {
			called++
			return nil
		}),
	})
	require.NoError(t, err)

	_, session := store.Create()
	require.NoError(t, session.Submit(context.Background(), "me@example.com", "secret"))
	assert.Equal(t, 1, called)
}
