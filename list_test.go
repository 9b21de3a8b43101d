package rescache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testEntry(key string, size int) *entry {
	return newEntry(key, key, size, time.Now(), 0)
}

func keysOf(l *list) []string {
	var keys []string
	for n := l.first; n != nil; n = n.next() {
		keys = append(keys, n.(*entry).key)
	}

	return keys
}

func TestListAppend(t *testing.T) {
	l := new(list)
	require.True(t, l.empty())

	l.append(testEntry("a", 1))
	l.append(testEntry("b", 1))
	l.append(testEntry("c", 1))

	require.False(t, l.empty())
	require.Equal(t, []string{"a", "b", "c"}, keysOf(l))
}

func TestListRemove(t *testing.T) {
	for _, test := range []struct {
		msg    string
		remove string
		check  []string
	}{
		{"first", "a", []string{"b", "c"}},
		{"middle", "b", []string{"a", "c"}},
		{"last", "c", []string{"a", "b"}},
	} {
		t.Run(test.msg, func(t *testing.T) {
			l := new(list)
			entries := map[string]*entry{}
			for _, k := range []string{"a", "b", "c"} {
				entries[k] = testEntry(k, 1)
				l.append(entries[k])
			}

			l.remove(entries[test.remove])
			require.Equal(t, test.check, keysOf(l))
		})
	}
}

func TestListRemoveOnly(t *testing.T) {
	l := new(list)
	e := testEntry("a", 1)
	l.append(e)
	l.remove(e)
	require.True(t, l.empty())
	require.Nil(t, l.last)
}

func TestListToBack(t *testing.T) {
	l := new(list)
	entries := map[string]*entry{}
	for _, k := range []string{"a", "b", "c"} {
		entries[k] = testEntry(k, 1)
		l.append(entries[k])
	}

	l.toBack(entries["a"])
	require.Equal(t, []string{"b", "c", "a"}, keysOf(l))

	// already the most recent one
	l.toBack(entries["a"])
	require.Equal(t, []string{"b", "c", "a"}, keysOf(l))

	l.toBack(entries["c"])
	require.Equal(t, []string{"b", "a", "c"}, keysOf(l))
}
