package service

import "fmt"

// FallbackPrompt is used when a chat request carries no document text.
const FallbackPrompt = "You are an AI tutor. Ask the user to upload a document first."

// TutorPrompt builds the system prompt for a document conversation. The
// prompt embeds the full page-marked text and instructs the model to cite
// with [Page X] markers; those markers are what the citation extractor
// parses out of the finished response.
func TutorPrompt(textContent string) string {
	if textContent == "" {
		return FallbackPrompt
	}

	return fmt.Sprintf(`You are an AI tutor for the uploaded document.

MANDATORY CITATION REQUIREMENT:
EVERY response MUST include [Page X] citations when referencing document content.
NO EXCEPTIONS. NO RESPONSES WITHOUT CITATIONS.

Document content:
%s

CITATION RULES:
1. ALWAYS use the [Page X] format when referencing any information from the document
2. Look for "--- PAGE X ---" markers to determine page numbers
3. Every fact, quote, or reference MUST have a citation
4. Examples:
   - "According to [Page 1], Newton's first law states..."
   - "The definition of force [Page 3] explains..."

Without citations the user cannot navigate to the referenced content.
Help the student understand this material and ALWAYS cite your sources using the [Page X] format.`, textContent)
}
