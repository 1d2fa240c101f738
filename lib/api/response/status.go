package response

import (
	"context"
	"errors"
	"log/slog"
	"lovealbum/entity"
	"net/http"
)

// Status maps a service error to the HTTP status the handlers answer with.
func Status(err error) int {
	switch {
	case errors.Is(err, entity.ErrCodeNotFound),
		errors.Is(err, entity.ErrAlbumNotFound),
		errors.Is(err, entity.ErrDraftNotFound),
		errors.Is(err, entity.ErrBlockNotFound),
		errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrEmptyCode),
		errors.Is(err, entity.ErrInvalidHours),
		errors.Is(err, entity.ErrUnknownBlockType):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPasswordMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrEditWindowExpired),
		errors.Is(err, entity.ErrLocked),
		errors.Is(err, entity.ErrNotEntered):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// LogLevel keeps client mistakes at debug so they never reach the admin channel.
func LogLevel(err error) slog.Level {
	if Status(err) >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelDebug
}
