// Package graphql wires the dictionary schema into an HTTP handler.
package graphql

import (
	"context"
	"errors"
	"log/slog"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/pkg/ctxutil"
)

// NewErrorPresenter returns a gqlgen error presenter that maps domain errors
// to GraphQL error codes. Anything unrecognized is logged and reported as
// "internal error".
func NewErrorPresenter(log *slog.Logger) graphql.ErrorPresenterFunc {
	return func(ctx context.Context, err error) *gqlerror.Error {
		gqlErr := graphql.DefaultErrorPresenter(ctx, err)

		switch {
		case errors.Is(err, domain.ErrNotFound):
			gqlErr.Extensions = map[string]any{"code": "NOT_FOUND"}

		case errors.Is(err, domain.ErrAlreadyExists):
			gqlErr.Extensions = map[string]any{"code": "ALREADY_EXISTS"}

		case errors.Is(err, domain.ErrValidation):
			gqlErr.Extensions = map[string]any{"code": "VALIDATION"}
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				gqlErr.Extensions["fields"] = ve.Errors
			}

		case errors.Is(err, domain.ErrUnavailable):
			gqlErr.Extensions = map[string]any{"code": "UNAVAILABLE"}

		default:
			log.ErrorContext(ctx, "unexpected GraphQL error",
				slog.String("error", err.Error()),
				slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
			)
			gqlErr.Message = "internal error"
			gqlErr.Extensions = map[string]any{"code": "INTERNAL"}
		}

		return gqlErr
	}
}
