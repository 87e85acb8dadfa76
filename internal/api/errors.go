package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/palmistry/core/conversation"
	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/core/session"
)

var (
	errInvalidJSON      = response.ErrBadRequest.WithMessage("Request body must be valid JSON.")
	errQuestionRequired = response.ErrUnprocessableEntity.WithMessage("Field 'question' is required.")
	errInvalidLimit     = response.ErrBadRequest.WithMessage("Query parameter 'limit' must be a positive integer.")
	errSessionNotFound  = response.ErrUnauthorized.WithMessage("Session not found or expired.")
)

// conversationError maps orchestrator failures to HTTP. Ownership failures
// are reported as 404 so the existence of other users' data is not revealed.
// A request cancelled by its client is answered with 499 so logs and metrics
// do not count it as a success.
func (h *Handler) conversationError(ctx context.Context, w http.ResponseWriter, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		response.Error(w, response.ErrClientClosedRequest)
		return
	}

	reason := conversation.ReasonOf(err)
	kind := conversation.KindOf(err)

	var httpErr response.HTTPError
	switch kind {
	case conversation.KindNotFound, conversation.KindNotOwned:
		httpErr = response.ErrNotFound.WithMessage(reason)
	case conversation.KindNotCompleted:
		httpErr = response.ErrBadRequest.WithMessage(reason)
	case conversation.KindBudgetExceeded:
		httpErr = response.ErrTooManyRequests.WithMessage(reason)
	case conversation.KindPolicyRejected:
		httpErr = response.ErrForbidden.WithMessage(reason)
	case conversation.KindUpstream:
		httpErr = response.ErrInternalServerError.WithMessage(reason)
	default:
		httpErr = response.ErrInternalServerError
	}

	response.Error(w, httpErr.WithDetails(map[string]any{"reason": kind.String()}))
}

// sessionError maps session manager failures to HTTP.
func (h *Handler) sessionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		response.Error(w, errSessionNotFound)
	case errors.Is(err, session.ErrSaveSession):
		h.logger.ErrorContext(ctx, "session store unavailable", logger.Error(err))
		response.Error(w, response.ErrServiceUnavailable)
	default:
		h.logger.ErrorContext(ctx, "session operation failed", logger.Error(err))
		response.Error(w, response.ErrInternalServerError)
	}
}
