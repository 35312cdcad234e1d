package chunking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore backs the chunk and document repositories with maps.
type memStore struct {
	mu           sync.Mutex
	chunks       map[string][]models.Chunk // document ID -> chunks
	descriptions map[string]string
	docs         []models.Document
	insertErr    map[string]error
}

func newMemStore(docs ...models.Document) *memStore {
	return &memStore{
		chunks:       map[string][]models.Chunk{},
		descriptions: map[string]string{},
		docs:         docs,
		insertErr:    map[string]error{},
	}
}

func (m *memStore) all() []models.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chunk
	for _, d := range m.docs {
		out = append(out, m.chunks[d.ID]...)
	}
	return out
}

type memChunks struct{ *memStore }

func (r memChunks) InsertSet(ctx context.Context, set *models.ChunkSet) error {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Chunk
	for _, g := range set.Problems {
		all = append(all, g.Root)
	}
	for _, g := range set.Problems {
		for _, c := range g.Children {
			all = append(all, c)
		}
	}
	for _, c := range set.Theory {
		all = append(all, c)
	}
	for _, c := range all {
		if err := m.insertErr[c.Base().DocumentID]; err != nil {
			return err
		}
		m.chunks[c.Base().DocumentID] = append(m.chunks[c.Base().DocumentID], c)
	}
	return nil
}

func (r memChunks) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, documentID)
	return nil
}

func (r memChunks) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, cs := range r.chunks {
		if len(cs) > 0 && cs[0].Base().SessionID == sessionID {
			n += int64(len(cs))
			delete(r.chunks, id)
		}
	}
	return n, nil
}

func (r memChunks) CountBySession(ctx context.Context, sessionID string) (int, error) {
	return len(r.all()), nil
}

func (r memChunks) ListBySession(ctx context.Context, sessionID string) ([]models.ChunkView, error) {
	return nil, errors.New("not implemented")
}

type memDocuments struct{ *memStore }

func (r memDocuments) Create(ctx context.Context, doc *models.Document) error {
	return errors.New("not implemented")
}

func (r memDocuments) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return nil, errors.New("not implemented")
}

func (r memDocuments) ListBySession(ctx context.Context, sessionID string) ([]models.Document, error) {
	return r.docs, nil
}

func (r memDocuments) ListCompleted(ctx context.Context, sessionID string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range r.docs {
		if d.ProcessingStatus == models.ProcessingCompleted {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r memDocuments) CountBySession(ctx context.Context, sessionID string) (int, error) {
	return len(r.docs), nil
}

func (r memDocuments) CountCompleted(ctx context.Context, sessionID string) (int, error) {
	docs, _ := r.ListCompleted(ctx, sessionID)
	return len(docs), nil
}

func (r memDocuments) Delete(ctx context.Context, id, sessionID string) (*models.Document, error) {
	return nil, errors.New("not implemented")
}

func (r memDocuments) SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	return nil
}

func (r memDocuments) CompleteExtraction(ctx context.Context, id, text string) error {
	return nil
}

func (r memDocuments) SetFileDescription(ctx context.Context, id, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptions[id] = description
	return nil
}

// passthroughTx runs fn directly.
type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// textFunc adapts a function to oracle.TextGenerator.
type textFunc func(req *oracle.TextRequest) (string, error)

func (f textFunc) Complete(ctx context.Context, req *oracle.TextRequest) (string, error) {
	return f(req)
}

func (f textFunc) Stream(ctx context.Context, req *oracle.TextRequest, onDelta func(string)) (string, error) {
	return f(req)
}

func (f textFunc) Name() string { return "fake" }

// constEmbedder returns a vector per text, or err. dims of 0 uses the
// configured embedding size.
type constEmbedder struct {
	err   error
	dims  int
	calls [][]string
}

func (e *constEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	dims := e.dims
	if dims == 0 {
		dims = config.EmbeddingDimensions
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, dims)
		vec[0] = float32(i)
		out[i] = vec
	}
	return out, nil
}
