package domain

// DistanceCosine is the only distance the pipeline creates collections with.
const DistanceCosine = "Cosine"

// PointPayload is the metadata stored alongside every vector.
type PointPayload struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Text string `json:"text"`
}

// Point is one vector plus its payload in a collection.
type Point struct {
	ID      string
	Vector  []float32
	Payload PointPayload
}

// ScoredPoint is a similarity query hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload PointPayload
}

// CollectionStats describes a vector collection.
type CollectionStats struct {
	Name                string `json:"collection_name"`
	Status              string `json:"status"`
	PointsCount         int64  `json:"points_count"`
	IndexedVectorsCount int64  `json:"indexed_vectors_count"`
	SegmentsCount       int64  `json:"segments_count"`
	VectorSize          int    `json:"vector_size"`
	Distance            string `json:"distance"`
	OnDiskPayload       bool   `json:"on_disk_payload"`
}

// StoreResult reports the outcome of one batched upsert.
type StoreResult struct {
	// Stored is the number of points written by the call.
	Stored int

	// Stats is the collection state after the write, nil if it could not be read.
	Stats *CollectionStats
}
