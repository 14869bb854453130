package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studymate/internal/model"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("create questions batch failed: %w", err)
	}
	return nil
}

func (r *QuestionRepository) ListByUserID(ctx context.Context, userID uint, documentID uint) ([]model.Question, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if documentID != 0 {
		q = q.Where("document_id = ?", documentID)
	}
	var list []model.Question
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list questions failed: %w", err)
	}
	return list, nil
}
