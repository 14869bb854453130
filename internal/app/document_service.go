package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"studymate/internal/extract"
	"studymate/internal/model"
	"studymate/internal/repository"
)

type DocumentService struct {
	docRepo     *repository.DocumentRepository
	passageRepo *repository.PassageRepository
	dispatcher  IndexDispatcher
	maxBytes    int64
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	passageRepo *repository.PassageRepository,
	dispatcher IndexDispatcher,
	maxBytes int64,
) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &DocumentService{
		docRepo:     docRepo,
		passageRepo: passageRepo,
		dispatcher:  dispatcher,
		maxBytes:    maxBytes,
	}
}

type UploadInput struct {
	UserID      uint
	Filename    string
	MIMEType    string
	Title       string
	Subject     string
	Description string
	Data        []byte
}

type CreateTextInput struct {
	UserID      uint
	Title       string
	Subject     string
	Description string
	Content     string
}

// Upload extracts the text of a file, stores the document and queues it for
// indexing. Nothing is stored for unsupported formats.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.UserID == 0 || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if int64(len(input.Data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	mimeType := extract.DetectMIME(input.Data, input.Filename, input.MIMEType)
	text, err := extract.Extract(input.Data, mimeType)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return nil, err
		}
		log.Printf("extract %q (%s) failed: %v", input.Filename, mimeType, err)
		return nil, ErrUnreadableDocument
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		base := filepath.Base(input.Filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s.create(ctx, &model.Document{
		UserID:      input.UserID,
		Title:       title,
		Filename:    filepath.Base(input.Filename),
		MIMEType:    mimeType,
		FileSize:    int64(len(input.Data)),
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Content:     text,
	})
}

// CreateFromText stores pasted text as a document.
func (s *DocumentService) CreateFromText(ctx context.Context, input CreateTextInput) (*model.Document, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if int64(len(input.Content)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	return s.create(ctx, &model.Document{
		UserID:      input.UserID,
		Title:       strings.TrimSpace(input.Title),
		MIMEType:    extract.MIMEText,
		FileSize:    int64(len(input.Content)),
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Content:     strings.TrimSpace(input.Content),
	})
}

func (s *DocumentService) create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, ErrEmptyDocument
	}
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	// indexing is best effort; queries fall back to raw content until it lands
	if err := s.dispatcher.Dispatch(ctx, doc.ID); err != nil {
		log.Printf("dispatch index for document %d failed: %v", doc.ID, err)
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByUserID(ctx, userID)
}

type DocumentDetail struct {
	model.Document
	Content      string `json:"content"`
	PassageCount int64  `json:"passage_count"`
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID uint) (*DocumentDetail, error) {
	doc, err := s.owned(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	count, err := s.passageRepo.CountByDocumentID(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, Content: doc.Content, PassageCount: count}, nil
}

func (s *DocumentService) Delete(ctx context.Context, userID, documentID uint) error {
	if _, err := s.owned(ctx, userID, documentID); err != nil {
		return err
	}
	return s.docRepo.DeleteWithPassages(ctx, documentID, userID)
}

// Reindex drops the document's passages and queues a fresh index run.
func (s *DocumentService) Reindex(ctx context.Context, userID, documentID uint) error {
	doc, err := s.owned(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.passageRepo.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.dispatcher.Dispatch(ctx, doc.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexDispatch, err)
	}
	return nil
}

func (s *DocumentService) owned(ctx context.Context, userID, documentID uint) (*model.Document, error) {
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
