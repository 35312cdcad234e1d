// Package analysis parses the tagged document analysis returned by the
// chunking model.
//
// The expected shape is:
//
//	<FILE_DESCRIPTION>...</FILE_DESCRIPTION>
//	<THEORETICAL_CONTENT>
//	  <RELATED_TOPICS>1, 3</RELATED_TOPICS>
//	  <CONTENT>...</CONTENT>
//	</THEORETICAL_CONTENT>
//	<PROBLEM>
//	  <DESCRIPTION>...</DESCRIPTION>
//	  <RELATED_TOPICS>2</RELATED_TOPICS>
//	  <STATEMENT>...</STATEMENT>
//	  <SOLUTION>...</SOLUTION>
//	</PROBLEM>
//
// Only FILE_DESCRIPTION is mandatory. Everything else degrades silently.
package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

const (
	TagFileDescription    = "FILE_DESCRIPTION"
	TagTheoreticalContent = "THEORETICAL_CONTENT"
	TagRelatedTopics      = "RELATED_TOPICS"
	TagContent            = "CONTENT"
	TagProblem            = "PROBLEM"
	TagDescription        = "DESCRIPTION"
	TagStatement          = "STATEMENT"
	TagSolution           = "SOLUTION"
)

var tagPatterns = func() map[string]*regexp.Regexp {
	tags := []string{
		TagFileDescription, TagTheoreticalContent, TagRelatedTopics, TagContent,
		TagProblem, TagDescription, TagStatement, TagSolution,
	}
	m := make(map[string]*regexp.Regexp, len(tags))
	for _, tag := range tags {
		// (?s) lets . cross newlines; the group is non-greedy so the first
		// closing tag ends the block.
		m[tag] = regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
	}
	return m
}()

// extractTag returns the trimmed content of the first <tag> block.
func extractTag(text, tag string) (string, bool) {
	m := tagPatterns[tag].FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// extractAll returns the trimmed content of every <tag> block in order.
func extractAll(text, tag string) []string {
	matches := tagPatterns[tag].FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}

// parseTopicIndices reads a comma-separated list, keeping only tokens made
// entirely of ASCII digits.
func parseTopicIndices(text string) []int {
	if text == "" {
		return nil
	}
	var indices []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		indices = append(indices, n)
	}
	return indices
}

// Parse converts a model response into a DocumentAnalysis. It fails with
// *domain.ParseError only when FILE_DESCRIPTION is missing or blank.
func Parse(response string) (*models.DocumentAnalysis, error) {
	description, ok := extractTag(response, TagFileDescription)
	if !ok || description == "" {
		return nil, &domain.ParseError{Field: TagFileDescription}
	}

	result := &models.DocumentAnalysis{FileDescription: description}

	if block, ok := extractTag(response, TagTheoreticalContent); ok && block != "" {
		related, _ := extractTag(block, TagRelatedTopics)
		if content, _ := extractTag(block, TagContent); content != "" {
			result.Theory = &models.TheoreticalContent{
				RelatedTopicIndices: parseTopicIndices(related),
				Content:             content,
			}
		}
	}

	for _, block := range extractAll(response, TagProblem) {
		desc, _ := extractTag(block, TagDescription)
		if desc == "" {
			continue
		}
		statement, _ := extractTag(block, TagStatement)
		if statement == "" {
			continue
		}
		related, _ := extractTag(block, TagRelatedTopics)

		problem := models.Problem{
			Description:         desc,
			RelatedTopicIndices: parseTopicIndices(related),
			Statement:           statement,
		}
		if solution, _ := extractTag(block, TagSolution); solution != "" {
			problem.Solution = &solution
		}
		result.Problems = append(result.Problems, problem)
	}

	return result, nil
}
