package analysis

import (
	"errors"
	"testing"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullResponse = `Some preamble the model should not have written.
<FILE_DESCRIPTION>
  Lecture notes on limits and derivatives.
</FILE_DESCRIPTION>
<THEORETICAL_CONTENT>
<RELATED_TOPICS>1, 2, x, 3a, 4</RELATED_TOPICS>
<CONTENT>
A limit describes the value a function approaches.

Derivatives are limits of difference quotients.
</CONTENT>
</THEORETICAL_CONTENT>
<PROBLEM>
<DESCRIPTION>Compute a limit</DESCRIPTION>
<RELATED_TOPICS>1</RELATED_TOPICS>
<STATEMENT>Find lim x->0 of sin(x)/x.</STATEMENT>
<SOLUTION>The limit is 1.</SOLUTION>
</PROBLEM>
<PROBLEM>
<DESCRIPTION>Missing statement</DESCRIPTION>
<RELATED_TOPICS>2</RELATED_TOPICS>
</PROBLEM>
<PROBLEM>
<DESCRIPTION>Differentiate</DESCRIPTION>
<STATEMENT>Differentiate x^2.</STATEMENT>
</PROBLEM>`

func TestParse_FullResponse(t *testing.T) {
	got, err := Parse(fullResponse)
	require.NoError(t, err)

	assert.Equal(t, "Lecture notes on limits and derivatives.", got.FileDescription)

	require.NotNil(t, got.Theory)
	assert.Equal(t, []int{1, 2, 4}, got.Theory.RelatedTopicIndices)
	assert.Equal(t, "A limit describes the value a function approaches.\n\nDerivatives are limits of difference quotients.", got.Theory.Content)

	// Three PROBLEM blocks, one without STATEMENT.
	require.Len(t, got.Problems, 2)

	first := got.Problems[0]
	assert.Equal(t, "Compute a limit", first.Description)
	assert.Equal(t, []int{1}, first.RelatedTopicIndices)
	assert.Equal(t, "Find lim x->0 of sin(x)/x.", first.Statement)
	require.NotNil(t, first.Solution)
	assert.Equal(t, "The limit is 1.", *first.Solution)

	second := got.Problems[1]
	assert.Equal(t, "Differentiate", second.Description)
	assert.Empty(t, second.RelatedTopicIndices)
	assert.Nil(t, second.Solution)
}

func TestParse_MissingFileDescription(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty response", ""},
		{"plain prose", "I could not analyze this document."},
		{"other tags valid", "<THEORETICAL_CONTENT><CONTENT>x</CONTENT></THEORETICAL_CONTENT>"},
		{"blank description", "<FILE_DESCRIPTION>   \n </FILE_DESCRIPTION>"},
		{"unclosed tag", "<FILE_DESCRIPTION>notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.response)
			assert.Nil(t, got)

			var parseErr *domain.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, TagFileDescription, parseErr.Field)
		})
	}
}

func TestParse_OnlyFileDescription(t *testing.T) {
	got, err := Parse("<FILE_DESCRIPTION>Exam sheet</FILE_DESCRIPTION>")
	require.NoError(t, err)

	assert.Equal(t, "Exam sheet", got.FileDescription)
	assert.Nil(t, got.Theory)
	assert.Empty(t, got.Problems)
}

func TestParse_TheoryWithoutContentIsIgnored(t *testing.T) {
	response := `<FILE_DESCRIPTION>d</FILE_DESCRIPTION>
<THEORETICAL_CONTENT><RELATED_TOPICS>1</RELATED_TOPICS><CONTENT>  </CONTENT></THEORETICAL_CONTENT>`

	got, err := Parse(response)
	require.NoError(t, err)
	assert.Nil(t, got.Theory)
}

func TestParse_FirstSingletonWins(t *testing.T) {
	response := `<FILE_DESCRIPTION>first</FILE_DESCRIPTION><FILE_DESCRIPTION>second</FILE_DESCRIPTION>`

	got, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, "first", got.FileDescription)
}

func TestParse_ProblemWithoutDescriptionDropped(t *testing.T) {
	response := `<FILE_DESCRIPTION>d</FILE_DESCRIPTION>
<PROBLEM><STATEMENT>s</STATEMENT></PROBLEM>
<PROBLEM><DESCRIPTION>ok</DESCRIPTION><STATEMENT>s</STATEMENT><SOLUTION></SOLUTION></PROBLEM>`

	got, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, got.Problems, 1)
	assert.Equal(t, "ok", got.Problems[0].Description)
	assert.Nil(t, got.Problems[0].Solution)
}

func TestParseTopicIndices(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"1,2,3", []int{1, 2, 3}},
		{" 4 , 5 ", []int{4, 5}},
		{"-1, 2", []int{2}},
		{"one, 2.5, 7", []int{7}},
		{",,3,", []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTopicIndices(tt.in))
		})
	}
}
