package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSentences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryBackend()
	require.NoError(t, store.PutRecords(ctx, sampleRecords()))

	t.Run("BestMatchFirst", func(t *testing.T) {
		t.Parallel()
		results, err := SearchSentences(ctx, store, "yellow circles", 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "0-0", results[0].Identifier)
		assert.Equal(t, "false", results[0].Label)
	})

	t.Run("Limit", func(t *testing.T) {
		t.Parallel()
		results, err := SearchSentences(ctx, store, "there is a box", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("NoMatch", func(t *testing.T) {
		t.Parallel()
		results, err := SearchSentences(ctx, store, "zebra", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("EmptyStore", func(t *testing.T) {
		t.Parallel()
		results, err := SearchSentences(ctx, NewMemoryBackend(), "blue", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestKeywordRanking(t *testing.T) {
	t.Parallel()

	docs := []string{"a blue box", "blue square in a blue box", "yellow"}
	assert.Equal(t, []int{1, 0}, keywordRanking("blue square", docs))
	assert.Empty(t, keywordRanking("black", docs))
}
