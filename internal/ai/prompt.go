package ai

import (
	"fmt"
	"strings"
)

const groundingInstruction = `You are a helpful assistant that answers questions about the user's documents.
Answer using the document below. If the document does not contain the answer, say so.`

// groundedSystemPrompt folds the documents into a system message for chat APIs
// that have no native documents field.
func groundedSystemPrompt(documents []string) string {
	var sb strings.Builder
	sb.WriteString(groundingInstruction)
	for i, doc := range documents {
		sb.WriteString(fmt.Sprintf("\n\nDOCUMENT %d:\n", i+1))
		sb.WriteString(doc)
	}
	return sb.String()
}
