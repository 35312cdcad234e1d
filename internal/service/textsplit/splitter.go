// Package textsplit splits long text into overlapping, token-bounded chunks
// along paragraph and sentence boundaries.
package textsplit

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const paragraphSep = "\n\n"

// sentenceEnd matches terminal punctuation followed by whitespace. The
// punctuation stays with the preceding sentence; the whitespace is dropped.
var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// EstimateTokens approximates the token count of s as one token per four
// characters, never less than one.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s) / 4
	if n < 1 {
		return 1
	}
	return n
}

// Split breaks text into chunks of at most targetTokens estimated tokens.
//
// Text that already fits is returned unchanged as the only chunk. Otherwise
// paragraphs are accumulated until the next one would overflow; the chunk is
// then closed and the next one starts with the trailing paragraphs of the
// closed chunk that fit in overlapTokens. A paragraph that alone exceeds the
// target while nothing is accumulated is split into sentences, which go
// through the same accumulation. A single sentence larger than the target
// still becomes its own chunk.
func Split(text string, targetTokens, overlapTokens int) []string {
	if EstimateTokens(text) <= targetTokens {
		return []string{text}
	}

	a := &accumulator{target: targetTokens, overlap: overlapTokens}
	for _, para := range strings.Split(text, paragraphSep) {
		paraTokens := EstimateTokens(para)
		if paraTokens > targetTokens && len(a.current) == 0 {
			for _, sentence := range splitSentences(para) {
				a.add(sentence, EstimateTokens(sentence))
			}
			continue
		}
		a.add(para, paraTokens)
	}
	return a.finish()
}

type accumulator struct {
	target  int
	overlap int

	chunks  []string
	current []string
	tokens  int
}

func (a *accumulator) add(piece string, pieceTokens int) {
	if a.tokens+pieceTokens > a.target && len(a.current) > 0 {
		a.chunks = append(a.chunks, strings.Join(a.current, paragraphSep))

		tail := overlapText(a.current, a.overlap)
		a.current = a.current[:0:0]
		a.tokens = 0
		if tail != "" {
			a.current = append(a.current, tail)
			a.tokens = EstimateTokens(tail)
		}
	}
	a.current = append(a.current, piece)
	a.tokens += pieceTokens
}

func (a *accumulator) finish() []string {
	if len(a.current) > 0 {
		a.chunks = append(a.chunks, strings.Join(a.current, paragraphSep))
	}
	return a.chunks
}

// overlapText returns the longest run of trailing pieces whose estimates sum
// to at most budget, joined by blank lines.
func overlapText(pieces []string, budget int) string {
	total := 0
	start := len(pieces)
	for i := len(pieces) - 1; i >= 0; i-- {
		n := EstimateTokens(pieces[i])
		if total+n > budget {
			break
		}
		total += n
		start = i
	}
	return strings.Join(pieces[start:], paragraphSep)
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(para string) []string {
	matches := sentenceEnd.FindAllStringIndex(para, -1)
	if len(matches) == 0 {
		return []string{para}
	}

	sentences := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		// m[0] is the punctuation byte, which is always one byte wide.
		sentences = append(sentences, para[start:m[0]+1])
		start = m[1]
	}
	sentences = append(sentences, para[start:])
	return sentences
}
