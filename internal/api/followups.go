package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/core/sanitizer"
	"github.com/dmitrymomot/palmistry/middleware"
)

// startFollowup handles POST /analyses/{analysisID}/followup.
func (h *Handler) startFollowup(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromRequest(r)

	conv, err := h.conversations.GetOrCreate(r.Context(), chi.URLParam(r, "analysisID"), userID)
	if err != nil {
		h.conversationError(r.Context(), w, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, newConversationView(conv))
}

// followupStatus handles GET /analyses/{analysisID}/followup/status.
func (h *Handler) followupStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromRequest(r)

	status, err := h.conversations.Status(r.Context(), chi.URLParam(r, "analysisID"), userID)
	if err != nil {
		h.conversationError(r.Context(), w, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, newStatusView(status))
}

// askQuestion handles POST /followups/{conversationID}/questions.
func (h *Handler) askQuestion(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromRequest(r)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(w, response.ErrRequestEntityTooLarge)
			return
		}
		response.Error(w, errInvalidJSON)
		return
	}
	if err := sanitizer.SanitizeStruct(&req); err != nil {
		response.Error(w, errInvalidJSON)
		return
	}
	if req.Question == "" {
		response.Error(w, errQuestionRequired)
		return
	}

	ex, err := h.conversations.Ask(r.Context(), chi.URLParam(r, "conversationID"), userID, req.Question)
	if err != nil {
		h.conversationError(r.Context(), w, err)
		return
	}

	_ = response.JSON(w, http.StatusOK, exchangeView{
		ConversationID:     ex.Conversation.ID,
		Question:           newMessageView(ex.UserMessage),
		Answer:             newMessageView(ex.AssistantMessage),
		QuestionsRemaining: ex.QuestionsRemaining,
		TokensUsed:         ex.TokensUsed,
		Cost:               ex.Cost,
	})
}

// listMessages handles GET /followups/{conversationID}/messages?limit=N.
func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromRequest(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(w, errInvalidLimit)
			return
		}
		limit = n
	}

	page, err := h.conversations.History(r.Context(), chi.URLParam(r, "conversationID"), userID, limit)
	if err != nil {
		h.conversationError(r.Context(), w, err)
		return
	}

	msgs := make([]messageView, 0, len(page.Messages))
	for _, m := range page.Messages {
		msgs = append(msgs, newMessageView(m))
	}
	_ = response.JSON(w, http.StatusOK, historyView{
		Conversation: newConversationView(page.Conversation),
		Messages:     msgs,
	})
}
