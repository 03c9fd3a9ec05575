// Package promptstyle builds the grounded-answer prompts sent to the
// generation provider.
package promptstyle

import "strings"

// NotAvailable is the statement the model is told to give, and the fallback
// callers surface when generation or validation fails.
const NotAvailable = "This information is not available in the book."

const bookContextTemplate = "You are a helpful assistant for the Docusaurus book. " +
	"Answer questions based only on the provided book content. " +
	"Do not use any external knowledge or information beyond what is provided in the context. " +
	"If the answer is not found in the provided context, respond with: '" + NotAvailable + "' " +
	"Do not make up information or infer beyond what is explicitly stated in the provided context.\n\n" +
	"Context: "

const selectedTextTemplate = "You are a helpful assistant for the Docusaurus book. " +
	"Answer questions based only on the provided selected text. " +
	"Do not use any external knowledge or information beyond what is provided in the selected text. " +
	"If the answer is not found in the provided text, respond with: '" + NotAvailable + "' " +
	"Do not make up information or infer beyond what is explicitly stated in the selected text.\n\n" +
	"Selected text: "

const userInstructions = "Please provide a helpful and accurate answer based only on the information provided above. " +
	"Do not include any information not explicitly mentioned in the provided text."

// System returns the system prompt. A non-blank selection always wins over
// retrieved context.
func System(context, selectedText string) string {
	if strings.TrimSpace(selectedText) != "" {
		return selectedTextTemplate + selectedText
	}
	return bookContextTemplate + context
}

func User(question string) string {
	return "Question: " + question + "\n\n" + userInstructions
}
