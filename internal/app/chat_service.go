package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"studymate/internal/model"
	"studymate/internal/repository"
	"studymate/internal/retrieval"
)

type ChatService struct {
	docRepo          *repository.DocumentRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	retriever        ContextRetriever
	completer        Completer
	publisher        AsyncMessagePublisher
	historyCache     HistoryCache
	topK             int
}

// NewChatService builds the chat service. publisher and historyCache may be
// nil; messages are then written synchronously and history is not cached.
func NewChatService(
	docRepo *repository.DocumentRepository,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	retriever ContextRetriever,
	completer Completer,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	topK int,
) *ChatService {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	return &ChatService{
		docRepo:          docRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		retriever:        retriever,
		completer:        completer,
		publisher:        publisher,
		historyCache:     historyCache,
		topK:             topK,
	}
}

type AskInput struct {
	UserID         uint
	ConversationID uint
	Message        string
	DocumentIDs    []uint
}

type AskResult struct {
	ConversationID uint                     `json:"conversation_id"`
	Answer         string                   `json:"answer"`
	Context        []retrieval.ContextEntry `json:"context"`
}

// Ask answers a question from the given documents and records both turns in
// the conversation, creating it when ConversationID is zero.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	message := strings.TrimSpace(input.Message)
	if input.UserID == 0 || message == "" || len(input.DocumentIDs) == 0 {
		return nil, ErrInvalidInput
	}

	docIDs, err := ownedDocumentIDs(ctx, s.docRepo, input.UserID, input.DocumentIDs)
	if err != nil {
		return nil, err
	}

	var conversation *model.Conversation
	if input.ConversationID != 0 {
		conversation, err = s.conversationRepo.GetByIDAndUserID(ctx, input.ConversationID, input.UserID)
		if err != nil {
			return nil, err
		}
		if conversation == nil {
			return nil, ErrConversationNotFound
		}
	}

	// nothing is stored until an answer exists
	entries := s.retriever.Retrieve(ctx, message, docIDs, s.topK)
	answer := noDocumentsAnswer
	if len(entries) > 0 {
		answer, err = s.completer.Complete(ctx, answerSystemPrompt, answerUserPrompt(buildContext(entries), message))
		if err != nil {
			log.Printf("chat user %d: completion failed: %v", input.UserID, err)
			return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = emptyAnswer
		}
	}

	if conversation == nil {
		conversation = &model.Conversation{
			UserID: input.UserID,
			Title:  retrieval.Truncate(message, conversationTitleLen),
		}
		if err := s.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
	}

	s.persist(ctx, &model.Message{
		ConversationID: conversation.ID,
		UserID:         input.UserID,
		Role:           model.RoleUser,
		Content:        message,
		CreatedAt:      time.Now(),
	})
	s.persist(ctx, &model.Message{
		ConversationID: conversation.ID,
		UserID:         input.UserID,
		Role:           model.RoleAssistant,
		Content:        answer,
		CreatedAt:      time.Now(),
	})
	if err := s.conversationRepo.Touch(ctx, conversation.ID); err != nil {
		log.Printf("chat conversation %d: %v", conversation.ID, err)
	}

	return &AskResult{
		ConversationID: conversation.ID,
		Answer:         answer,
		Context:        entries,
	}, nil
}

// persist queues the message when a publisher is configured and writes it
// directly otherwise or when queueing fails. Failures are logged only.
func (s *ChatService) persist(ctx context.Context, msg *model.Message) {
	if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, msg.ConversationID); err != nil {
			log.Printf("chat conversation %d: %v", msg.ConversationID, err)
		}
	}
	if s.publisher != nil {
		err := s.publisher.Publish(ctx, *msg)
		if err == nil {
			return
		}
		log.Printf("chat conversation %d: enqueue message failed, writing directly: %v", msg.ConversationID, err)
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		log.Printf("chat conversation %d: save message failed: %v", msg.ConversationID, err)
	}
}

func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.conversationRepo.ListByUserID(ctx, userID)
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	if userID == 0 || conversationID == 0 {
		return ErrInvalidInput
	}
	conversation, err := s.conversationRepo.GetByIDAndUserID(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}
	if err := s.conversationRepo.DeleteByIDAndUserID(ctx, conversationID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.Delete(ctx, conversationID)
	}
	return nil
}

func (s *ChatService) GetHistory(ctx context.Context, userID, conversationID uint, limit int) ([]model.Message, error) {
	if userID == 0 || conversationID == 0 {
		return nil, ErrInvalidInput
	}
	conversation, err := s.conversationRepo.GetByIDAndUserID(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	limit = repository.NormalizeMessageLimit(limit)
	if s.historyCache == nil {
		return s.messageRepo.ListByConversationID(ctx, conversationID, limit)
	}

	// the cache holds the longest history the repository serves; every
	// request trims its own view from it
	dirty, err := s.historyCache.IsDirty(ctx, conversationID)
	if err == nil && !dirty {
		if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
			return trimMessages(cached, limit), nil
		}
	}

	messages, err := s.messageRepo.ListByConversationID(ctx, conversationID, repository.MaxMessageLimit)
	if err != nil {
		return nil, err
	}
	if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
		_ = s.historyCache.SetHistory(ctx, conversationID, messages)
	}
	return trimMessages(messages, limit), nil
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[:limit]
}
