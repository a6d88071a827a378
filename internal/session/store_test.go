package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeSession(t *testing.T, id string) *Session {
	t.Helper()
	return New(id, testDoc(), Deps{Collaborator: &fakeCollab{}, Log: quietLogger()})
}

func TestStore_PutGetDelete(t *testing.T) {
	st := NewStore(time.Hour, 10, quietLogger())
	sess := storeSession(t, "a")
	st.Put(sess)

	got, err := st.Get("a")
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = st.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Delete("a"))
	assert.ErrorIs(t, st.Delete("a"), ErrNotFound)
	assert.Zero(t, st.Len())

	_, err = sess.Dispatch(context.Background(), Command{Kind: KindGetChatHistory})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	st := NewStore(time.Hour, 2, quietLogger())
	a, b, c := storeSession(t, "a"), storeSession(t, "b"), storeSession(t, "c")
	st.Put(a)
	time.Sleep(2 * time.Millisecond)
	st.Put(b)
	time.Sleep(2 * time.Millisecond)
	_, _ = st.Get("a")

	st.Put(c)
	assert.Equal(t, 2, st.Len())
	_, err := st.Get("b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get("a")
	assert.NoError(t, err)
}

func TestStore_Cleanup(t *testing.T) {
	st := NewStore(10*time.Millisecond, 0, quietLogger())
	st.Put(storeSession(t, "old"))
	time.Sleep(25 * time.Millisecond)
	st.Put(storeSession(t, "new"))

	assert.Equal(t, 1, st.Cleanup())
	_, err := st.Get("old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get("new")
	assert.NoError(t, err)
}

func TestStore_StartStop(t *testing.T) {
	st := NewStore(5*time.Millisecond, 0, quietLogger())
	st.Put(storeSession(t, "x"))
	st.Start(context.Background(), 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for st.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Zero(t, st.Len())

	st.Put(storeSession(t, "y"))
	st.Stop()
	assert.Zero(t, st.Len())
}
