package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_StartGetDelete(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	_, ok := store.Get(1)
	assert.False(t, ok)

	session := store.Start(1)
	assert.Equal(t, StepTheme, session.Step)

	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Same(t, session, got)

	store.Delete(1)
	_, ok = store.Get(1)
	assert.False(t, ok)
}

func TestSessionStore_StartResetsProgress(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	session := store.Start(1)
	session.Step = StepLength
	session.Params.Theme = "fantasy"

	fresh := store.Start(1)
	assert.Equal(t, StepTheme, fresh.Step)
	assert.Empty(t, fresh.Params.Theme)
}

func TestSessionStore_ExpiryOnAccess(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	store.Start(1)

	// В пределах TTL сессия жива
	current = current.Add(29 * time.Minute)
	_, ok := store.Get(1)
	assert.True(t, ok)

	// Touch сдвигает отсчет простоя
	store.Touch(1)
	current = current.Add(29 * time.Minute)
	_, ok = store.Get(1)
	assert.True(t, ok)

	// После TTL простоя сессия вытесняется при доступе
	current = current.Add(31 * time.Minute)
	_, ok = store.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_Sweep(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	store.Start(1)
	store.Start(2)

	current = current.Add(20 * time.Minute)
	store.Start(3)

	current = current.Add(15 * time.Minute)
	evicted := store.Sweep()
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get(3)
	assert.True(t, ok)
}

func TestSessionStore_ZeroTTLNeverExpires(t *testing.T) {
	store := NewSessionStore(0)

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	store.Start(1)
	current = current.Add(1000 * time.Hour)

	_, ok := store.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 0, store.Sweep())
}
