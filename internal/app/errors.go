package app

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentAccess       = errors.New("invalid document access")
	ErrNoDocuments          = errors.New("no documents available")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrFileTooLarge         = errors.New("file too large")
	ErrEmptyDocument        = errors.New("document has no extractable text")
	ErrUnreadableDocument   = errors.New("document could not be read")
	ErrIndexDispatch        = errors.New("index dispatch failed")
	ErrGeneration           = errors.New("text generation failed")
)
