package entity

import "errors"

var (
	ErrCodeNotFound      = errors.New("code not found")
	ErrEmptyCode         = errors.New("code is empty")
	ErrInvalidHours      = errors.New("hours must be positive")
	ErrEditWindowExpired = errors.New("edit window expired")
	ErrAlbumNotFound     = errors.New("album not found")
	ErrDraftNotFound     = errors.New("album is not open for editing")
	ErrBlockNotFound     = errors.New("block not found")
	ErrUnknownBlockType  = errors.New("unknown block type")
	ErrPasswordMismatch  = errors.New("wrong password")
	ErrSessionNotFound   = errors.New("viewer session not found")
	ErrLocked            = errors.New("album is locked")
	ErrNotEntered        = errors.New("album is not opened yet")
)
