package ai

import "fmt"

// BuildAnalysisPrompt creates the summarization prompt for a transcript or
// text submission. The response format is fixed so ParseAnalysis can extract
// the sections deterministically.
func BuildAnalysisPrompt(text string) string {
	return fmt.Sprintf(`Analyze this transcript and provide:

1. A brief summary (3-5 bullet points)
2. Action items (things that need to be done)

Transcript:
%s

Format your response EXACTLY like this:

SUMMARY:
- Point 1
- Point 2
- Point 3

ACTION ITEMS:
- Task 1
- Task 2
`, text)
}
