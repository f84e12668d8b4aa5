package loratext_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exepirit/loratext/pkg/loratext"
)

func sequentialIDs() loratext.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func TestStoreCreate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := loratext.NewStore(sequentialIDs())

	m := s.Create("alice", "bob", "hi", now)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, loratext.StateIdle, m.State)
	assert.Equal(t, now, m.LastTransition)
	assert.Equal(t, now, m.CreatedAt)
	assert.Zero(t, m.Attempts)

	got, ok := s.Get("m1")
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := loratext.NewStore(nil)
	m := s.Create("alice", "bob", "hi", time.Now())
	m.State = loratext.StateDelivered

	stored, ok := s.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, loratext.StateIdle, stored.State)
}

func TestStoreInsertionOrder(t *testing.T) {
	s := loratext.NewStore(sequentialIDs())
	now := time.Now()
	for _, text := range []string{"one", "two", "three"} {
		s.Create("alice", "bob", text, now)
	}

	var ids []string
	s.ForEach(func(m *loratext.Message) { ids = append(ids, m.ID) })
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
	assert.Equal(t, 3, s.Len())
	assert.Len(t, s.Snapshot(), 3)
}

func TestStoreFindByIDUnknown(t *testing.T) {
	s := loratext.NewStore(nil)
	_, ok := s.FindByID("missing")
	assert.False(t, ok)
}

func TestNewMessageIDHasNoSeparator(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := loratext.NewMessageID()
		assert.Len(t, id, 32)
		assert.NotContains(t, id, string([]byte{loratext.Separator}))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", loratext.StateIdle.String())
	assert.Equal(t, "sending", loratext.StateSending.String())
	assert.Equal(t, "delivered", loratext.StateDelivered.String())
	assert.Equal(t, "failed", loratext.StateFailed.String())
}
