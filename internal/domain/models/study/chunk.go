package study

// ChunkType is the persisted kind of a chunk.
type ChunkType string

const (
	ChunkTypeTheory  ChunkType = "theory"
	ChunkTypeProblem ChunkType = "problem"
)

// ChunkBase holds the fields every chunk variant shares.
type ChunkBase struct {
	ID              string   `json:"id"`
	DocumentID      string   `json:"document_id"`
	SessionID       string   `json:"session_id"`
	Text            string   `json:"chunk_text"`
	RelatedTopicIDs []string `json:"related_topic_ids"`
}

// Chunk is a retrievable unit of document content. The concrete types are
// *TheoryChunk, *RootChunk and *ChildChunk.
type Chunk interface {
	Base() *ChunkBase
	Type() ChunkType
	// ParentID is empty for theory and root chunks.
	ParentID() string
}

// Embeddable is implemented by the chunk variants that carry a vector.
// Root problem chunks deliberately do not implement it.
type Embeddable interface {
	Chunk
	SetEmbedding(v []float32)
	Vector() []float32
}

// TheoryChunk is an overlapping passage of explanatory content.
type TheoryChunk struct {
	ChunkBase
	Embedding []float32 `json:"-"`
}

func (c *TheoryChunk) Base() *ChunkBase         { return &c.ChunkBase }
func (c *TheoryChunk) Type() ChunkType          { return ChunkTypeTheory }
func (c *TheoryChunk) ParentID() string         { return "" }
func (c *TheoryChunk) SetEmbedding(v []float32) { c.Embedding = v }
func (c *TheoryChunk) Vector() []float32        { return c.Embedding }

// RootChunk is the full text of one worked problem. It owns the ChildChunks
// that are actually searched and is never embedded itself.
type RootChunk struct {
	ChunkBase
}

func (c *RootChunk) Base() *ChunkBase { return &c.ChunkBase }
func (c *RootChunk) Type() ChunkType  { return ChunkTypeProblem }
func (c *RootChunk) ParentID() string { return "" }

// ChildChunk is an embedded slice of a RootChunk.
type ChildChunk struct {
	ChunkBase
	Parent    string    `json:"parent_chunk_id"`
	Embedding []float32 `json:"-"`
}

func (c *ChildChunk) Base() *ChunkBase         { return &c.ChunkBase }
func (c *ChildChunk) Type() ChunkType          { return ChunkTypeProblem }
func (c *ChildChunk) ParentID() string         { return c.Parent }
func (c *ChildChunk) SetEmbedding(v []float32) { c.Embedding = v }
func (c *ChildChunk) Vector() []float32        { return c.Embedding }

// ProblemGroup is a root chunk together with its children.
type ProblemGroup struct {
	Root     *RootChunk
	Children []*ChildChunk
}

// ChunkSet is everything produced for one document, in persistence order.
type ChunkSet struct {
	Theory   []*TheoryChunk
	Problems []ProblemGroup
}

// Embeddables returns theory chunks followed by every problem child, in order.
func (s *ChunkSet) Embeddables() []Embeddable {
	out := make([]Embeddable, 0, len(s.Theory))
	for _, c := range s.Theory {
		out = append(out, c)
	}
	for _, g := range s.Problems {
		for _, c := range g.Children {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of chunks including roots.
func (s *ChunkSet) Count() int {
	n := len(s.Theory)
	for _, g := range s.Problems {
		n += 1 + len(g.Children)
	}
	return n
}

// ChunkView is the read model of a persisted chunk, without its vector.
type ChunkView struct {
	ChunkBase
	Type          ChunkType `json:"type"`
	ParentChunkID *string   `json:"parent_chunk_id,omitempty"`
	HasEmbedding  bool      `json:"has_embedding"`
}
