package app

import (
	"fmt"
	"strings"

	"studymate/internal/retrieval"
)

const (
	summaryContentChars   = 8000
	questionsContentChars = 6000
	conversationTitleLen  = 50

	noDocumentsAnswer = "I couldn't find any documents. Please make sure you have uploaded documents first."
	emptyAnswer       = "I received an empty response from the AI. Please try rephrasing your question."
)

const answerSystemPrompt = "You are an AI study assistant. Answer the student's question based ONLY on the provided context from their study materials. " +
	"Use only information from the context provided. If the context doesn't contain enough information, say so. " +
	"Be concise but thorough. Use bullet points where appropriate. " +
	"Cite which parts of the context you used by referencing [1], [2], etc."

const summarySystemPrompt = "You are an AI study assistant. Create a concise, well-structured summary of the provided study material. " +
	"Include: Main topics and key concepts, Important definitions, Key takeaways. Use bullet points for clarity."

var difficultyGuide = map[string]string{
	"easy":   "Basic recall and understanding",
	"medium": "Application and analysis",
	"hard":   "Synthesis and evaluation",
}

// buildContext numbers each entry so answers can cite [n].
func buildContext(entries []retrieval.ContextEntry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = fmt.Sprintf("[%d] %s", i+1, e.Content)
	}
	return strings.Join(blocks, "\n\n")
}

func answerUserPrompt(contextBlock, question string) string {
	return "Context from study materials:\n\n" + contextBlock + "\n\nQuestion: " + question
}

func summaryUserPrompt(content string) string {
	return "Summarize this study material:\n\n" + retrieval.Truncate(content, summaryContentChars)
}

func questionsSystemPrompt(difficulty string, count int) string {
	return fmt.Sprintf("You are an AI study assistant. Generate %d multiple-choice questions based on the provided study material. "+
		"Difficulty: %s (%s). "+
		`Format each question as JSON: {"question": "Question text?", "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"], "answer": "A) Correct option", "difficulty": "%s"}. `+
		"Return ONLY a JSON array of questions.",
		count, difficulty, difficultyGuide[difficulty], difficulty)
}

func questionsUserPrompt(content, difficulty string, count int) string {
	return fmt.Sprintf("Generate %d %s questions from:\n\n%s", count, difficulty, retrieval.Truncate(content, questionsContentChars))
}
