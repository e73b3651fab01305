package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
)

// classify maps a service error to its HTTP status, gRPC code and the message
// safe to show the caller. Unknown errors never leak their text.
func classify(err error) (int, codes.Code, ErrorResponse) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, codes.InvalidArgument, ErrorResponse{Error: ve.Error(), Field: ve.Field}
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, codes.Unauthenticated, ErrorResponse{Error: "authentication required"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, codes.NotFound, ErrorResponse{Error: "not found"}
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusConflict, codes.FailedPrecondition, ErrorResponse{Error: "cart is empty"}
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, codes.FailedPrecondition, ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, codes.AlreadyExists, ErrorResponse{Error: "duplicate request"}
	case errors.Is(err, domain.ErrOrderPlacementFailed):
		return http.StatusInternalServerError, codes.Internal, ErrorResponse{Error: "order could not be placed"}
	default:
		return http.StatusInternalServerError, codes.Internal, ErrorResponse{Error: "internal error"}
	}
}

func writeError(w http.ResponseWriter, err error) {
	code, _, body := classify(err)
	writeJSON(w, code, body)
}

func grpcError(err error) error {
	_, code, body := classify(err)
	return status.Error(code, body.Error)
}
