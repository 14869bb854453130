package app

import (
	"context"

	"studymate/internal/repository"
)

// ownedDocumentIDs dedupes ids and fails with ErrDocumentAccess unless the
// user owns every one of them.
func ownedDocumentIDs(ctx context.Context, docRepo *repository.DocumentRepository, userID uint, ids []uint) ([]uint, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, ErrInvalidInput
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, ErrInvalidInput
	}

	owned, err := docRepo.FilterOwnedIDs(ctx, userID, unique)
	if err != nil {
		return nil, err
	}
	if len(owned) != len(unique) {
		return nil, ErrDocumentAccess
	}
	return unique, nil
}
