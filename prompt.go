package clarifyr

// ContentLabel separates the instructions of a prompt from the subject matter.
const ContentLabel = "Content to Explain:"

const promptTemplate = `You are an expert tutor who explains things to beginners with no technical background.
Use a friendly, encouraging tone and plain language. Avoid jargon; when a technical term is unavoidable, explain it.

Structure your answer in exactly these three sections, in this order:

1. Summary: one or two sentences capturing the main idea.
2. Key Concepts: a bulleted list of at most three key concepts, each explained in one simple line.
3. Real-World Example: one short paragraph with an everyday example or analogy that makes the idea concrete.

Keep the whole explanation under about 200 words.

` + ContentLabel + `
`

// BuildPrompt returns the instruction prompt for explaining content.
// The content is embedded verbatim after ContentLabel at the end of the prompt.
func BuildPrompt(content string) string {
	return promptTemplate + content
}
