package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studymate/internal/model"
)

type PassageRepository struct {
	db *gorm.DB
}

func NewPassageRepository(db *gorm.DB) *PassageRepository {
	return &PassageRepository{db: db}
}

func (r *PassageRepository) Create(ctx context.Context, passage *model.Passage) error {
	if err := r.db.WithContext(ctx).Create(passage).Error; err != nil {
		return fmt.Errorf("create passage failed: %w", err)
	}
	return nil
}

func (r *PassageRepository) CreateBatch(ctx context.Context, passages []model.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&passages).Error; err != nil {
		return fmt.Errorf("create passages batch failed: %w", err)
	}
	return nil
}

// ListByDocumentIDs returns every passage of the given documents, oldest first.
// Caller should filter document IDs by user ownership.
func (r *PassageRepository) ListByDocumentIDs(ctx context.Context, documentIDs []uint) ([]model.Passage, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	var passages []model.Passage
	if err := r.db.WithContext(ctx).Where("document_id IN ?", documentIDs).Order("id ASC").Find(&passages).Error; err != nil {
		return nil, fmt.Errorf("list passages by document ids failed: %w", err)
	}
	return passages, nil
}

func (r *PassageRepository) CountByDocumentID(ctx context.Context, documentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Passage{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count passages failed: %w", err)
	}
	return count, nil
}

func (r *PassageRepository) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Passage{}).Error; err != nil {
		return fmt.Errorf("delete passages by document failed: %w", err)
	}
	return nil
}
