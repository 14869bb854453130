package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"studymate/internal/model"
	"studymate/internal/repository"
	"studymate/internal/retrieval"
)

const (
	defaultDifficulty    = "medium"
	defaultQuestionCount = 5
	maxQuestionCount     = 20
)

var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

type StudyService struct {
	docRepo      *repository.DocumentRepository
	questionRepo *repository.QuestionRepository
	retriever    ContextRetriever
	completer    Completer
}

func NewStudyService(
	docRepo *repository.DocumentRepository,
	questionRepo *repository.QuestionRepository,
	retriever ContextRetriever,
	completer Completer,
) *StudyService {
	return &StudyService{
		docRepo:      docRepo,
		questionRepo: questionRepo,
		retriever:    retriever,
		completer:    completer,
	}
}

// Summarize returns the stored summary, generating and storing it on first use.
func (s *StudyService) Summarize(ctx context.Context, userID, documentID uint) (string, error) {
	doc, err := s.document(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if doc.Summary != "" {
		return doc.Summary, nil
	}

	summary, err := s.completer.Complete(ctx, summarySystemPrompt, summaryUserPrompt(doc.Content))
	if err != nil {
		log.Printf("summarize document %d failed: %v", doc.ID, err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrGeneration)
	}
	written, err := s.docRepo.UpdateSummary(ctx, doc.ID, summary)
	if err != nil {
		return "", err
	}
	if written {
		return summary, nil
	}

	// a concurrent request stored its summary first
	stored, err := s.docRepo.GetByID(ctx, doc.ID)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", ErrDocumentNotFound
	}
	return stored.Summary, nil
}

type GenerateQuestionsInput struct {
	UserID     uint
	DocumentID uint
	Difficulty string
	Count      int
}

type generatedQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
}

// GenerateQuestions asks for multiple-choice questions over the start of
// the document and stores whatever the model returns.
func (s *StudyService) GenerateQuestions(ctx context.Context, input GenerateQuestionsInput) ([]model.Question, error) {
	difficulty := strings.ToLower(strings.TrimSpace(input.Difficulty))
	if difficulty == "" {
		difficulty = defaultDifficulty
	}
	if _, ok := difficultyGuide[difficulty]; !ok {
		return nil, ErrInvalidInput
	}
	count := input.Count
	if count == 0 {
		count = defaultQuestionCount
	}
	if count < 1 || count > maxQuestionCount {
		return nil, ErrInvalidInput
	}

	doc, err := s.document(ctx, input.UserID, input.DocumentID)
	if err != nil {
		return nil, err
	}

	reply, err := s.completer.Complete(ctx, questionsSystemPrompt(difficulty, count), questionsUserPrompt(doc.Content, difficulty, count))
	if err != nil {
		log.Printf("generate questions for document %d failed: %v", doc.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	generated, err := parseQuestions(reply)
	if err != nil {
		log.Printf("generate questions for document %d: %v", doc.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	questions := make([]model.Question, 0, len(generated))
	for _, g := range generated {
		if strings.TrimSpace(g.Question) == "" {
			continue
		}
		q := model.Question{
			UserID:     input.UserID,
			DocumentID: doc.ID,
			Question:   strings.TrimSpace(g.Question),
			Answer:     strings.TrimSpace(g.Answer),
			Difficulty: g.Difficulty,
			Subject:    doc.Subject,
		}
		if q.Difficulty == "" {
			q.Difficulty = difficulty
		}
		q.SetOptions(g.Options)
		questions = append(questions, q)
	}
	if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// parseQuestions reads the outermost JSON array in reply. No array means no
// questions.
func parseQuestions(reply string) ([]generatedQuestion, error) {
	match := jsonArrayPattern.FindString(reply)
	if match == "" {
		return nil, nil
	}
	var out []generatedQuestion
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return nil, fmt.Errorf("parse questions json failed: %w", err)
	}
	return out, nil
}

func (s *StudyService) ListQuestions(ctx context.Context, userID, documentID uint) ([]model.Question, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.questionRepo.ListByUserID(ctx, userID, documentID)
}

type RetrieveInput struct {
	UserID      uint
	Query       string
	DocumentIDs []uint
	TopK        int
}

// Retrieve exposes context selection for the user's own documents.
func (s *StudyService) Retrieve(ctx context.Context, input RetrieveInput) ([]retrieval.ContextEntry, error) {
	query := strings.TrimSpace(input.Query)
	if input.UserID == 0 || query == "" || input.TopK < 0 {
		return nil, ErrInvalidInput
	}
	docIDs, err := ownedDocumentIDs(ctx, s.docRepo, input.UserID, input.DocumentIDs)
	if err != nil {
		return nil, err
	}
	entries := s.retriever.Retrieve(ctx, query, docIDs, input.TopK)
	if len(entries) == 0 {
		return nil, ErrNoDocuments
	}
	return entries, nil
}

func (s *StudyService) document(ctx context.Context, userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}
