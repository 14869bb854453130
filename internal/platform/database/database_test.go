package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/model"
)

func TestNewSQLiteAndMigrate(t *testing.T) {
	db, err := New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&model.Document{}))
	assert.True(t, db.Migrator().HasTable(&model.Passage{}))
	assert.True(t, db.Migrator().HasTable(&model.Question{}))
	assert.NoError(t, Ping(context.Background(), db, time.Second))

	p := &model.Passage{DocumentID: 1, Content: "text", ChunkIndex: 0, ChunkCount: 1}
	p.SetEmbedding([]float32{0.25, -1, 3})
	require.NoError(t, db.Create(p).Error)

	var loaded model.Passage
	require.NoError(t, db.First(&loaded, p.ID).Error)
	assert.Equal(t, []float32{0.25, -1, 3}, loaded.EmbeddingVector())
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), "oracle", "x")
	assert.Error(t, err)
}
