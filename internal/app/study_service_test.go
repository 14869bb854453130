package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/retrieval"
)

func TestSummarizeGeneratesOnce(t *testing.T) {
	r := newRepos(t)
	doc := r.seedDocument(t, 1, "Long", strings.Repeat("a", 9000))
	completer := &fakeCompleter{reply: " - Key point "}
	svc := NewStudyService(r.documents, r.questions, &staticRetriever{}, completer)

	summary, err := svc.Summarize(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "- Key point", summary)

	again, err := svc.Summarize(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, summary, again)

	require.Len(t, completer.calls, 1)
	assert.Equal(t, summarySystemPrompt, completer.calls[0].system)
	assert.Equal(t, "Summarize this study material:\n\n"+strings.Repeat("a", 8000), completer.calls[0].user)
}

// racingCompleter runs before before replying, standing in for a concurrent
// request that finishes first.
type racingCompleter struct {
	before func()
	reply  string
}

func (c *racingCompleter) Complete(context.Context, string, string) (string, error) {
	c.before()
	return c.reply, nil
}

func TestSummarizeReturnsSummaryStoredFirst(t *testing.T) {
	r := newRepos(t)
	doc := r.seedDocument(t, 1, "Doc", "Text.")
	completer := &racingCompleter{
		reply: "late summary",
		before: func() {
			written, err := r.documents.UpdateSummary(context.Background(), doc.ID, "stored first")
			require.NoError(t, err)
			require.True(t, written)
		},
	}
	svc := NewStudyService(r.documents, r.questions, &staticRetriever{}, completer)

	summary, err := svc.Summarize(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "stored first", summary)

	stored, err := r.documents.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "stored first", stored.Summary)
}

func TestSummarizeErrors(t *testing.T) {
	r := newRepos(t)
	doc := r.seedDocument(t, 1, "Doc", "Text.")
	svc := NewStudyService(r.documents, r.questions, &staticRetriever{}, &fakeCompleter{err: errors.New("timeout")})

	_, err := svc.Summarize(context.Background(), 1, doc.ID)
	assert.ErrorIs(t, err, ErrGeneration)
	_, err = svc.Summarize(context.Background(), 2, doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestGenerateQuestions(t *testing.T) {
	r := newRepos(t)
	doc := r.seedDocument(t, 1, "Cells", "Mitochondria make ATP.")
	reply := "Here you go:\n```json\n" + `[
 {"question": "What makes ATP?", "options": ["A) Mitochondria", "B) Ribosome", "C) Nucleus", "D) Wall"], "answer": "A) Mitochondria", "difficulty": "hard"},
 {"question": "  ", "options": [], "answer": ""}
]` + "\n```"
	completer := &fakeCompleter{reply: reply}
	svc := NewStudyService(r.documents, r.questions, &staticRetriever{}, completer)

	questions, err := svc.GenerateQuestions(context.Background(), GenerateQuestionsInput{UserID: 1, DocumentID: doc.ID, Difficulty: "Hard", Count: 3})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What makes ATP?", questions[0].Question)
	assert.Equal(t, []string{"A) Mitochondria", "B) Ribosome", "C) Nucleus", "D) Wall"}, questions[0].OptionList())
	assert.NotZero(t, questions[0].ID)

	require.Len(t, completer.calls, 1)
	assert.Contains(t, completer.calls[0].system, "Generate 3 multiple-choice questions")
	assert.Contains(t, completer.calls[0].system, "Difficulty: hard (Synthesis and evaluation)")
	assert.Equal(t, "Generate 3 hard questions from:\n\nMitochondria make ATP.", completer.calls[0].user)

	listed, err := svc.ListQuestions(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestGenerateQuestionsDefaultsAndValidation(t *testing.T) {
	r := newRepos(t)
	doc := r.seedDocument(t, 1, "Cells", "Text.")
	completer := &fakeCompleter{reply: "no array here"}
	svc := NewStudyService(r.documents, r.questions, &staticRetriever{}, completer)

	questions, err := svc.GenerateQuestions(context.Background(), GenerateQuestionsInput{UserID: 1, DocumentID: doc.ID})
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.Contains(t, completer.calls[0].user, "Generate 5 medium questions")

	_, err = svc.GenerateQuestions(context.Background(), GenerateQuestionsInput{UserID: 1, DocumentID: doc.ID, Difficulty: "insane"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.GenerateQuestions(context.Background(), GenerateQuestionsInput{UserID: 1, DocumentID: doc.ID, Count: 21})
	assert.ErrorIs(t, err, ErrInvalidInput)

	completer.reply = "[not json]"
	_, err = svc.GenerateQuestions(context.Background(), GenerateQuestionsInput{UserID: 1, DocumentID: doc.ID})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestRetrieveChecksOwnership(t *testing.T) {
	r := newRepos(t)
	mine := r.seedDocument(t, 1, "Mine", "Text.")
	theirs := r.seedDocument(t, 2, "Theirs", "Text.")
	retriever := &staticRetriever{entries: []retrieval.ContextEntry{{Content: "Text.", Similarity: 0.8}}}
	svc := NewStudyService(r.documents, r.questions, retriever, &fakeCompleter{})

	entries, err := svc.Retrieve(context.Background(), RetrieveInput{UserID: 1, Query: "q", DocumentIDs: []uint{mine.ID}})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.Retrieve(context.Background(), RetrieveInput{UserID: 1, Query: "q", DocumentIDs: []uint{theirs.ID}})
	assert.ErrorIs(t, err, ErrDocumentAccess)

	retriever.entries = nil
	_, err = svc.Retrieve(context.Background(), RetrieveInput{UserID: 1, Query: "q", DocumentIDs: []uint{mine.ID}})
	assert.ErrorIs(t, err, ErrNoDocuments)
}
