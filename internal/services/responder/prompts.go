package responder

// chatSystemPrompt grounds answers in the retrieved context. The model is
// instructed to admit when the context does not hold the answer instead of
// guessing from its own knowledge.
const chatSystemPrompt = `You are a helpful AI assistant. Answer the user's question based on the provided context from the PDF document. If the context doesn't contain the answer, say so.`

// summaryPrompt drives whole-document summarization over the concatenated
// page text.
const summaryPrompt = `Kindly generate a concise and insightful summary of the following document. Cover its purpose, key insights, and overall significance. Keep the summary focused and readable.`

// noContextFallback is returned when retrieval finds nothing relevant. The
// model is never invoked in that case.
const noContextFallback = "I couldn't find information about that in the document."
