package chunking

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/textsplit"
)

// topicIndex maps a plan order_index to the persisted topic ID.
type topicIndex map[int]string

func newTopicIndex(topics []models.Topic) topicIndex {
	idx := make(topicIndex, len(topics))
	for _, t := range topics {
		idx[t.OrderIndex] = t.ID
	}
	return idx
}

// resolve maps indices to topic IDs, dropping unknown ones.
func (idx topicIndex) resolve(indices []int) []string {
	ids := make([]string, 0, len(indices))
	for _, i := range indices {
		if id, ok := idx[i]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func newBase(doc *models.Document, text string, topicIDs []string) models.ChunkBase {
	return models.ChunkBase{
		ID:              uuid.NewString(),
		DocumentID:      doc.ID,
		SessionID:       doc.SessionID,
		Text:            text,
		RelatedTopicIDs: topicIDs,
	}
}

// problemRootText renders the full text of a problem with its headers.
func problemRootText(fileDescription string, p models.Problem) string {
	lines := []string{
		"[File: " + fileDescription + "]",
		"",
		"[Problem: " + p.Description + "]",
		"",
		"[Statement]",
		p.Statement,
	}
	if p.Solution != nil && *p.Solution != "" {
		lines = append(lines, "", "[Solution]", *p.Solution)
	}
	return strings.Join(lines, "\n")
}

// buildChunkSet turns a parsed analysis into theory chunks and problem
// groups. Every chunk gets a fresh ID so children can reference their root
// before anything is persisted.
func buildChunkSet(doc *models.Document, analysis *models.DocumentAnalysis, topics topicIndex) *models.ChunkSet {
	set := &models.ChunkSet{}

	if th := analysis.Theory; th != nil {
		ids := topics.resolve(th.RelatedTopicIndices)
		for _, text := range textsplit.Split(th.Content, config.TheoryChunkTokens, config.TheoryOverlapTokens) {
			set.Theory = append(set.Theory, &models.TheoryChunk{ChunkBase: newBase(doc, text, ids)})
		}
	}

	for _, p := range analysis.Problems {
		ids := topics.resolve(p.RelatedTopicIndices)
		rootText := problemRootText(analysis.FileDescription, p)
		root := &models.RootChunk{ChunkBase: newBase(doc, rootText, ids)}

		group := models.ProblemGroup{Root: root}
		for _, text := range textsplit.Split(rootText, config.ProblemChunkTokens, 0) {
			group.Children = append(group.Children, &models.ChildChunk{
				ChunkBase: newBase(doc, text, ids),
				Parent:    root.ID,
			})
		}
		set.Problems = append(set.Problems, group)
	}

	return set
}

// fallbackChunkSet splits the raw document text into untagged theory
// chunks. Used when the analysis could not be obtained.
func fallbackChunkSet(doc *models.Document) *models.ChunkSet {
	set := &models.ChunkSet{}
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return set
	}
	for _, t := range textsplit.Split(text, config.TheoryChunkTokens, config.TheoryOverlapTokens) {
		set.Theory = append(set.Theory, &models.TheoryChunk{ChunkBase: newBase(doc, t, []string{})})
	}
	return set
}

// formatPlan renders the plan as a numbered outline for the chunking prompt.
func formatPlan(plan models.DraftPlan) string {
	var lines []string
	for _, t := range plan {
		lines = append(lines, strconv.Itoa(t.OrderIndex)+". "+t.Title)
		for _, st := range t.Subtopics {
			lines = append(lines, "   - "+st)
		}
	}
	return strings.Join(lines, "\n")
}
