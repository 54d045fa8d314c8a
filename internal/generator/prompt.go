package generator

import (
	"fmt"
	"strings"

	"github.com/example/llm-deployer/internal/models"
)

// buildAppPrompt renders the generation prompt. The model must answer with a
// single JSON object mapping file path to file content, nothing else; the
// parser strips code fences anyway because models love adding them.
func buildAppPrompt(sub *models.TaskSubmission, attachmentTexts []AttachmentText) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a code generator for small static web applications.
Output ONLY a JSON object mapping file path to full file content, no prose, no code fences.

Rules:
- The app must be a fully static site servable from the repository root.
- Always include "index.html" as the entry point.
- Use plain HTML, CSS and vanilla JavaScript only; no build step, no external package manager.
- Inline or relative-path every asset you emit; every referenced path must be a key in the object.
- Include a short "README.md" describing the app.

Task: %s
`, sub.Task)

	if strings.TrimSpace(sub.Brief) != "" {
		fmt.Fprintf(&b, "\nBrief:\n%s\n", sub.Brief)
	}
	if len(sub.Checks) > 0 {
		b.WriteString("\nThe app MUST satisfy each of these requirements:\n")
		for i, c := range sub.Checks {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
	}
	for _, at := range attachmentTexts {
		fmt.Fprintf(&b, "\nAttachment %q:\n%s\n", at.Name, at.Text)
	}
	b.WriteString("\nSchema: {\"<path>\": \"<content>\", ...}\n")
	return b.String()
}
