package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/rag-mcp/internal/embedder"
	"github.com/raglab/rag-mcp/internal/vectorstore"
	"github.com/raglab/rag-mcp/pkg/types"
)

func TestSystem_EmptyLayout(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "index"), filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))

	got := c.System()
	assert.False(t, got.Index.IndexExists)
	assert.False(t, got.Index.MetadataExists)
	assert.Zero(t, got.Index.TotalDocuments)
	assert.Zero(t, got.Data.RawFilesCount)
	assert.Zero(t, got.Data.ProcessedFilesCount)
}

func TestIndex_ReflectsPersistedStore(t *testing.T) {
	indexDir := t.TempDir()

	store, err := vectorstore.New(indexDir, embedder.LocalDimension)
	require.NoError(t, err)

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	vectors, err := emb.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.NoError(t, store.Add(vectors, []types.DocumentChunk{
		{Source: "doc_0", Text: "one"},
		{Source: "doc_0", Text: "two"},
	}))

	c := New(indexDir, t.TempDir(), t.TempDir())
	got := c.Index()

	assert.True(t, got.IndexExists)
	assert.True(t, got.MetadataExists)
	assert.Equal(t, 2, got.TotalDocuments)
	assert.Greater(t, got.IndexSizeMB, 0.0)
}

func TestData_CountsFilesAndSizes(t *testing.T) {
	rawDir := t.TempDir()
	processedDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "b.txt"), []byte("world!"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "c.json"), []byte("{}"), 0o644))

	c := New(t.TempDir(), rawDir, processedDir)
	got := c.Data()

	assert.Equal(t, 2, got.RawFilesCount)
	assert.Equal(t, 1, got.ProcessedFilesCount)
	assert.Greater(t, got.RawDirSizeMB, 0.0)
	assert.Greater(t, got.ProcessedDirSizeMB, 0.0)
}

func TestIndex_CorruptMetadataCountsZero(t *testing.T) {
	indexDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(indexDir, vectorstore.MetadataFileName), []byte("not json"), 0o644))

	c := New(indexDir, t.TempDir(), t.TempDir())
	got := c.Index()

	assert.True(t, got.MetadataExists)
	assert.Zero(t, got.TotalDocuments)
}
