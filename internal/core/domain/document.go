package domain

import "time"

// FileRecord tracks a file the pipeline has ingested.
// The content hash, not the path, is the identity used for deduplication.
type FileRecord struct {
	// Path is the location the file was ingested from.
	Path string

	// Hash is the hex SHA-256 of the file contents.
	Hash string

	// IngestedAt is when the record was written.
	IngestedAt time.Time

	// Indexed is set only after every chunk of the file was stored.
	Indexed bool
}

// SourceFile is a file admitted to an ingestion run by the walker.
type SourceFile struct {
	Path string
	Hash string

	// Ext is the lower-cased extension used to pick an extractor.
	Ext string
}

// ExtractedBlock is a span of UTF-8 text produced by an extractor.
type ExtractedBlock struct {
	Path string
	Hash string
	Text string
}

// Chunk is a bounded slice of extracted text, the unit of embedding.
type Chunk struct {
	Path string
	Hash string
	Text string

	// Index is the emission order of the chunk within its file.
	Index int
}

// EmbeddingBatch pairs chunks with their vectors, one row per chunk.
type EmbeddingBatch struct {
	Chunks  []Chunk
	Vectors [][]float32
}

// Len returns the number of chunks in the batch.
func (b EmbeddingBatch) Len() int {
	return len(b.Chunks)
}

// Hashes returns the distinct file hashes in the batch, in first-seen order.
func (b EmbeddingBatch) Hashes() []string {
	seen := make(map[string]struct{}, len(b.Chunks))
	var out []string
	for _, c := range b.Chunks {
		if _, ok := seen[c.Hash]; ok {
			continue
		}
		seen[c.Hash] = struct{}{}
		out = append(out, c.Hash)
	}
	return out
}
