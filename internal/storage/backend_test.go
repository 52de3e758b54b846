package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/nlvr-graph/internal/scene"
)

func sampleRecords() []SceneRecord {
	return []SceneRecord{
		{
			Identifier: "1304-0",
			Sentence:   "There is a box with only one item that is blue.",
			Label:      "true",
			StructuredRep: scene.Description{
				{{Size: 10, Type: "square", Color: "Blue", XLoc: 5, YLoc: 5}},
				{},
				{{Size: 20, Type: "circle", Color: "Yellow", XLoc: 40, YLoc: 40}},
			},
		},
		{
			Identifier: "0-0",
			Sentence:   "There are two yellow circles.",
			Label:      "false",
			StructuredRep: scene.Description{
				{{Size: 20, Type: "circle", Color: "Yellow", XLoc: 0, YLoc: 0}},
			},
		},
		{
			Identifier:    "77-3",
			Sentence:      "A black triangle is touching the wall.",
			Label:         "true",
			StructuredRep: scene.Description{{}},
		},
	}
}

// backends returns an initialized instance of every SceneStore.
func backends(t *testing.T) map[string]SceneStore {
	t.Helper()

	mem := NewMemoryBackend()
	require.NoError(t, mem.Initialize("", false))

	bdg := NewBadgerBackend()
	require.NoError(t, bdg.Initialize(filepath.Join(t.TempDir(), "badger"), false))
	t.Cleanup(func() { _ = bdg.Close() })

	return map[string]SceneStore{"Memory": mem, "Badger": bdg}
}

func TestSceneRecord_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, sampleRecords()[0].Validate())
	assert.Error(t, SceneRecord{StructuredRep: scene.Description{}}.Validate())
	assert.Error(t, SceneRecord{Identifier: "x"}.Validate())
	// An empty but present scene is valid.
	assert.NoError(t, SceneRecord{Identifier: "x", StructuredRep: scene.Description{}}.Validate())
}

func TestSceneStore_Contract(t *testing.T) {
	t.Parallel()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			require.NoError(t, store.PutRecords(ctx, sampleRecords()))
			assert.Equal(t, 3, store.RecordCount())

			t.Run("GetRecord", func(t *testing.T) {
				r, err := store.GetRecord(ctx, "1304-0")
				require.NoError(t, err)
				assert.Equal(t, sampleRecords()[0], r)
			})

			t.Run("GetMissing", func(t *testing.T) {
				_, err := store.GetRecord(ctx, "nope")
				assert.ErrorIs(t, err, ErrSceneNotFound)
			})

			t.Run("ListSorted", func(t *testing.T) {
				ids, err := store.ListIdentifiers(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"0-0", "1304-0", "77-3"}, ids)

				records, err := store.ListRecords(ctx)
				require.NoError(t, err)
				require.Len(t, records, 3)
				assert.Equal(t, "0-0", records[0].Identifier)
			})

			t.Run("Replace", func(t *testing.T) {
				r := sampleRecords()[1]
				r.Label = "true"
				require.NoError(t, store.PutRecords(ctx, []SceneRecord{r}))
				assert.Equal(t, 3, store.RecordCount())

				got, err := store.GetRecord(ctx, "0-0")
				require.NoError(t, err)
				assert.Equal(t, "true", got.Label)
			})

			t.Run("InvalidRecordRejected", func(t *testing.T) {
				err := store.PutRecords(ctx, []SceneRecord{{Identifier: "bad"}})
				assert.Error(t, err)
				_, err = store.GetRecord(ctx, "bad")
				assert.ErrorIs(t, err, ErrSceneNotFound)
			})

			t.Run("Delete", func(t *testing.T) {
				removed, err := store.DeleteRecord(ctx, "77-3")
				require.NoError(t, err)
				assert.True(t, removed)
				assert.Equal(t, 2, store.RecordCount())

				removed, err = store.DeleteRecord(ctx, "77-3")
				require.NoError(t, err)
				assert.False(t, removed)
			})
		})
	}
}

func TestMemoryBackend_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryBackend()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.PutRecords(ctx, sampleRecords())
			_, _ = store.ListRecords(ctx)
			_ = store.RecordCount()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, store.RecordCount())
}
