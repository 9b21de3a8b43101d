package rescache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func storeKeys(s *entryStore) []string {
	return keysOf(&s.lru)
}

func TestStoreGet(t *testing.T) {
	s := newEntryStore()
	_, ok := s.get("foo")
	require.False(t, ok)

	s.put(testEntry("foo", 3))
	e, ok := s.get("foo")
	require.True(t, ok)
	require.Equal(t, "foo", e.key)

	// get does not change the recency order
	s.put(testEntry("bar", 3))
	s.get("foo")
	require.Equal(t, []string{"foo", "bar"}, storeKeys(s))
}

func TestStoreTouch(t *testing.T) {
	s := newEntryStore()
	s.put(testEntry("foo", 3))
	s.put(testEntry("bar", 3))

	e, _ := s.get("foo")
	accessed := e.lastAccessed
	s.touch(e, accessed.Add(time.Second))

	require.Equal(t, []string{"bar", "foo"}, storeKeys(s))
	require.True(t, e.lastAccessed.After(accessed))
}

func TestStorePutReplace(t *testing.T) {
	s := newEntryStore()
	require.Nil(t, s.put(testEntry("foo", 3)))
	s.put(testEntry("bar", 5))

	prev := s.put(testEntry("foo", 7))
	require.NotNil(t, prev)
	require.Equal(t, 3, prev.size)

	// the replacement takes the most recently used position
	require.Equal(t, []string{"bar", "foo"}, storeKeys(s))
	require.Equal(t, 12, s.totalBytes())
	require.Equal(t, 2, s.len())
}

func TestStoreRemove(t *testing.T) {
	s := newEntryStore()
	s.put(testEntry("foo", 3))
	s.put(testEntry("bar", 5))

	e, ok := s.remove("foo")
	require.True(t, ok)
	require.Equal(t, "foo", e.key)
	require.Equal(t, 5, s.totalBytes())
	require.Equal(t, 1, s.len())

	_, ok = s.remove("foo")
	require.False(t, ok)
}

func TestStoreOldest(t *testing.T) {
	s := newEntryStore()
	require.Nil(t, s.oldest())

	s.put(testEntry("foo", 3))
	s.put(testEntry("bar", 5))
	require.Equal(t, "foo", s.oldest().key)

	e, _ := s.get("foo")
	s.touch(e, time.Now())
	require.Equal(t, "bar", s.oldest().key)
}

func TestStoreTotalBytesIncremental(t *testing.T) {
	s := newEntryStore()
	require.Equal(t, 0, s.totalBytes())

	s.put(testEntry("a", 10))
	s.put(testEntry("b", 20))
	require.Equal(t, 30, s.totalBytes())

	s.remove("a")
	require.Equal(t, 20, s.totalBytes())

	s.put(testEntry("b", 25))
	require.Equal(t, 25, s.totalBytes())
}
