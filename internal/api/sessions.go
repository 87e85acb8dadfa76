package api

import (
	"net/http"

	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/middleware"
)

// currentSession handles GET /auth/sessions/current. The CSRF token is
// returned so the front end can attach it to unsafe requests.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	info, err := h.sessions.Info(r.Context(), sess.ID)
	if err != nil {
		h.sessionError(r.Context(), w, err)
		return
	}

	_ = response.JSON(w, http.StatusOK, currentSessionView{
		sessionView: sessionView{Info: info, Current: true},
		CSRFToken:   sess.CSRFToken,
	})
}

// listSessions handles GET /auth/sessions.
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	infos := h.sessions.ListUserSessions(r.Context(), sess.UserID)
	views := make([]sessionView, 0, len(infos))
	for _, info := range infos {
		views = append(views, sessionView{Info: info, Current: info.ID == sess.ID})
	}
	_ = response.JSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// rotateSession handles POST /auth/sessions/rotate. The new identifier is
// written to the cookie; the old one stops working.
func (h *Handler) rotateSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	rotated, err := h.sessions.Rotate(r.Context(), sess.ID)
	if err != nil {
		h.sessionError(r.Context(), w, err)
		return
	}
	if err := h.cookies.Set(w, rotated.ID, h.cookieMaxAge()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to set rotated session cookie",
			logger.SessionID(rotated.ID),
			logger.Error(err),
		)
		response.Error(w, response.ErrInternalServerError)
		return
	}

	_ = response.JSON(w, http.StatusOK, rotateView{SessionID: rotated.ID, CSRFToken: rotated.CSRFToken})
}

// invalidateOtherSessions handles DELETE /auth/sessions: every session of
// the user except the current one is logged out.
func (h *Handler) invalidateOtherSessions(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	n := h.sessions.InvalidateUserSessions(r.Context(), sess.UserID, sess.ID)
	_ = response.JSON(w, http.StatusOK, invalidateView{Invalidated: n})
}

// logout handles DELETE /auth/sessions/current.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	if !h.sessions.Delete(r.Context(), sess.ID) {
		h.logger.WarnContext(r.Context(), "logout could not delete session", logger.SessionID(sess.ID))
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
