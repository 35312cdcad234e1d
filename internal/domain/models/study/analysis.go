package study

// TheoreticalContent is the explanatory part of a document as returned by
// the analysis model.
type TheoreticalContent struct {
	RelatedTopicIndices []int
	Content             string
}

// Problem is one worked exercise found in a document.
type Problem struct {
	Description         string
	RelatedTopicIndices []int
	Statement           string
	Solution            *string
}

// DocumentAnalysis is the parsed analysis of one document. It only lives for
// the duration of a chunking run.
type DocumentAnalysis struct {
	FileDescription string
	Theory          *TheoreticalContent
	Problems        []Problem
}
