package model

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Vector is an embedding column. On Postgres it maps to a native pgvector
// column; MySQL and SQLite store the vector's text form ("[0.1,0.2,...]").
type Vector struct {
	pgvector.Vector
}

func NewVector(vec []float32) Vector {
	return Vector{Vector: pgvector.NewVector(vec)}
}

func (Vector) GormDataType() string {
	return "vector"
}

func (Vector) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "vector"
	case "mysql":
		return "mediumtext"
	default:
		return "text"
	}
}
