// Package stats reports on-disk state of the index artifacts and data
// directories, consumed by the health tool.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/raglab/rag-mcp/internal/vectorstore"
	"github.com/raglab/rag-mcp/pkg/types"
)

// IndexStats describes the persisted index artifacts.
type IndexStats struct {
	IndexExists    bool    `json:"index_exists"`
	MetadataExists bool    `json:"metadata_exists"`
	IndexSizeMB    float64 `json:"index_size_mb"`
	TotalDocuments int     `json:"total_documents"`
}

// DataStats describes the raw and processed data directories.
type DataStats struct {
	RawFilesCount       int     `json:"raw_files_count"`
	ProcessedFilesCount int     `json:"processed_files_count"`
	RawDirSizeMB        float64 `json:"raw_dir_size_mb"`
	ProcessedDirSizeMB  float64 `json:"processed_dir_size_mb"`
}

// SystemStats is the combined health report.
type SystemStats struct {
	Index IndexStats `json:"index"`
	Data  DataStats  `json:"data"`
}

// Collector reads statistics for a fixed data layout.
type Collector struct {
	indexDir     string
	rawDir       string
	processedDir string
}

// New creates a Collector over the given directories.
func New(indexDir, rawDir, processedDir string) *Collector {
	return &Collector{
		indexDir:     indexDir,
		rawDir:       rawDir,
		processedDir: processedDir,
	}
}

// System returns the combined index and data statistics. Missing files and
// directories report as zero values, not errors.
func (c *Collector) System() SystemStats {
	return SystemStats{
		Index: c.Index(),
		Data:  c.Data(),
	}
}

// Index reports on the persisted vector blob and metadata file. The chunk
// count comes from the metadata file, the authoritative record of what the
// index holds.
func (c *Collector) Index() IndexStats {
	indexPath := filepath.Join(c.indexDir, vectorstore.IndexFileName)
	metaPath := filepath.Join(c.indexDir, vectorstore.MetadataFileName)

	var stats IndexStats

	if info, err := os.Stat(indexPath); err == nil {
		stats.IndexExists = true
		stats.IndexSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	if data, err := os.ReadFile(metaPath); err == nil {
		stats.MetadataExists = true
		var metadata []types.DocumentChunk
		if json.Unmarshal(data, &metadata) == nil {
			stats.TotalDocuments = len(metadata)
		}
	}

	return stats
}

// Data reports file counts and sizes for the raw and processed directories.
func (c *Collector) Data() DataStats {
	rawCount, rawSize := dirStats(c.rawDir)
	procCount, procSize := dirStats(c.processedDir)

	return DataStats{
		RawFilesCount:       rawCount,
		ProcessedFilesCount: procCount,
		RawDirSizeMB:        float64(rawSize) / (1024 * 1024),
		ProcessedDirSizeMB:  float64(procSize) / (1024 * 1024),
	}
}

func dirStats(dir string) (count int, size int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size
}
