package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/sportiq/internal/adapters/catalog"
	"github.com/okian/sportiq/internal/adapters/repository"
	service "github.com/okian/sportiq/internal/app"
	"github.com/okian/sportiq/internal/domain/gamification"
	"github.com/okian/sportiq/internal/domain/interest"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
)

// Wrap prefixes err with the operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags cause with kind so callers can match either.
func WrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrBackpressure), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrMissingUser),
		errors.Is(err, service.ErrUnknownTopic),
		errors.Is(err, interest.ErrUnknownInteraction),
		errors.Is(err, gamification.ErrInvalidAmount),
		errors.Is(err, gamification.ErrEmptyAction),
		errors.Is(err, catalog.ErrInvalidItem),
		errors.Is(err, repository.ErrInvalidBoard),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrMissingUser):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
