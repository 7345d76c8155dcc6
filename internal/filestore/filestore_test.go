package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counters struct {
	Values map[string]int `json:"values"`
}

func TestDocument_MissingFileReadsZero(t *testing.T) {
	doc, err := Open[counters](filepath.Join(t.TempDir(), "nested", "doc.json"), nil)
	require.NoError(t, err)

	v, err := doc.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v.Values)
}

func TestDocument_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	doc, err := Open[counters](path, nil)
	require.NoError(t, err)

	_, err = doc.Update(context.Background(), func(c *counters) error {
		c.Values = map[string]int{"a": 1}
		return nil
	})
	require.NoError(t, err)

	reopened, err := Open[counters](path, nil)
	require.NoError(t, err)
	v, err := reopened.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, v.Values)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDocument_FailedUpdateWritesNothing(t *testing.T) {
	doc, err := Open[counters](filepath.Join(t.TempDir(), "doc.json"), nil)
	require.NoError(t, err)
	require.NoError(t, doc.Replace(context.Background(), counters{Values: map[string]int{"a": 1}}))

	boom := errors.New("boom")
	_, err = doc.Update(context.Background(), func(c *counters) error {
		c.Values["a"] = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := doc.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v.Values["a"])
}

// Concurrent writers touching different keys would lose updates with an
// unlocked read-modify-write; under the writer lock every increment survives.
func TestDocument_ConcurrentUpdatesSerialize(t *testing.T) {
	doc, err := Open[counters](filepath.Join(t.TempDir(), "doc.json"), nil)
	require.NoError(t, err)

	const writers, rounds = 8, 20
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		key := string(rune('a' + w))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, err := doc.Update(context.Background(), func(c *counters) error {
					if c.Values == nil {
						c.Values = map[string]int{}
					}
					c.Values[key]++
					return nil
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	v, err := doc.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, v.Values, writers)
	for k, n := range v.Values {
		assert.Equalf(t, rounds, n, "key %s", k)
	}
}

func TestDocument_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	doc, err := Open[counters](path, nil)
	require.NoError(t, err)

	_, err = doc.Read(context.Background())
	assert.Error(t, err)
}

func TestDocument_CancelledContext(t *testing.T) {
	doc, err := Open[counters](filepath.Join(t.TempDir(), "doc.json"), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = doc.Update(ctx, func(c *counters) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
