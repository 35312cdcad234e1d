package config

import "time"

const (
	// MaxSessionTitleLength is the maximum length for study session titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxSessionTitleLength = 255

	// MaxSessionDescriptionLength bounds the free-text session description.
	MaxSessionDescriptionLength = 2000

	// MaxDocumentNameLength is the maximum length for uploaded file names.
	MaxDocumentNameLength = 255

	// MaxFileSize is the per-file upload limit (25 MB).
	MaxFileSize = 25 * 1024 * 1024

	// MaxSessionSize is the total upload budget of one session (150 MB).
	// Documents do not record their byte size, so the check approximates
	// usage as document count times MaxFileSize.
	MaxSessionSize = 150 * 1024 * 1024

	// MaxConcurrentPages caps in-flight vision calls while extracting one PDF.
	MaxConcurrentPages = 20

	// RasterDPI is the resolution pages are rendered at before vision extraction.
	RasterDPI = 150

	// MaxInstructionLength bounds a plan revision instruction.
	MaxInstructionLength = 4000

	// MaxPlanTopics bounds a manually submitted draft plan.
	MaxPlanTopics = 200
)

const (
	// TheoryChunkTokens is the target size of theory chunks.
	TheoryChunkTokens = 400

	// TheoryOverlapTokens is the overlap carried between theory chunks (~20%).
	TheoryOverlapTokens = 80

	// ProblemChunkTokens is the target size of problem child chunks. Children
	// never overlap.
	ProblemChunkTokens = 400

	// MaxAnalysisAttempts is the number of analyze-and-parse attempts per
	// document before falling back to plain theory chunks.
	MaxAnalysisAttempts = 3

	// EmbeddingDimensions is the vector length requested from the embedding model.
	EmbeddingDimensions = 768
)

const (
	DefaultMaxRetries     = 5
	DefaultRetryBaseDelay = time.Second
	DefaultRetryJitter    = 500 * time.Millisecond
	DefaultRetryMaxDelay  = time.Minute

	// SignedURLExpiry is how long document download links stay valid.
	SignedURLExpiry = time.Hour
)
