package ai

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model to answer only from the provided lecture
// material and to cite the source files it used.
const systemPrompt = `You are an assistant answering questions about university lecture materials.
Answer in the language of the question, based ONLY on the reference material below.

Instructions:
1. Accuracy: stay faithful to what the material says. Do not add information or guesses of your own.
2. Coverage: search the reference material carefully and include everything relevant to the question.
3. Detail: when asked about procedures or rules, describe conditions and steps as far as the material states them.
4. Missing information: if the material does not answer the question, say so explicitly instead of speculating.
5. Format: answer in clear natural language; use bullet points where they help.`

const noContextNote = `No reference material is available for this question. Tell the user that no lecture materials have been uploaded yet and that you cannot answer from course content.`

// BuildPrompt assembles the final prompt from the question and the retrieved
// chunk texts. With no chunks the model is told to report the missing
// material rather than answer freely.
func BuildPrompt(query string, contextChunks []string) string {
	var prompt strings.Builder
	prompt.WriteString(systemPrompt)
	prompt.WriteString("\n\n")

	if len(contextChunks) == 0 {
		prompt.WriteString(noContextNote)
		prompt.WriteString("\n\n")
	} else {
		prompt.WriteString("[Reference material]\n")
		for i, chunk := range contextChunks {
			prompt.WriteString(fmt.Sprintf("--- Context %d ---\n%s\n\n", i+1, chunk))
		}
	}

	prompt.WriteString("[Question]\n")
	prompt.WriteString(query)
	prompt.WriteString("\n\n[Answer]\n")

	return prompt.String()
}
