package api

import (
	"time"

	"github.com/dmitrymomot/palmistry/core/conversation"
	"github.com/dmitrymomot/palmistry/core/session"
)

type sessionView struct {
	session.Info
	Current bool `json:"current"`
}

type currentSessionView struct {
	sessionView
	CSRFToken string `json:"csrf_token"`
}

type rotateView struct {
	SessionID string `json:"session_id"`
	CSRFToken string `json:"csrf_token"`
}

type invalidateView struct {
	Invalidated int `json:"invalidated"`
}

type conversationView struct {
	ID                 string    `json:"conversation_id"`
	AnalysisID         string    `json:"analysis_id"`
	QuestionsAsked     int       `json:"questions_asked"`
	QuestionsRemaining int       `json:"questions_remaining"`
	MaxQuestions       int       `json:"max_questions"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	LastMessageAt      time.Time `json:"last_message_at"`
}

type messageView struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type exchangeView struct {
	ConversationID     string      `json:"conversation_id"`
	Question           messageView `json:"question"`
	Answer             messageView `json:"answer"`
	QuestionsRemaining int         `json:"questions_remaining"`
	TokensUsed         int         `json:"tokens_used"`
	Cost               float64     `json:"cost"`
}

type historyView struct {
	Conversation conversationView `json:"conversation"`
	Messages     []messageView    `json:"messages"`
}

type statusView struct {
	AnalysisID         string `json:"analysis_id"`
	Available          bool   `json:"available"`
	HasConversation    bool   `json:"has_conversation"`
	ConversationID     string `json:"conversation_id,omitempty"`
	IsActive           bool   `json:"is_active"`
	QuestionsAsked     int    `json:"questions_asked"`
	QuestionsRemaining int    `json:"questions_remaining"`
	MaxQuestions       int    `json:"max_questions"`
}

type askRequest struct {
	Question string `json:"question" sanitize:"user_text"`
}

func newConversationView(c conversation.Conversation) conversationView {
	return conversationView{
		ID:                 c.ID,
		AnalysisID:         c.AnalysisID,
		QuestionsAsked:     c.QuestionsAsked,
		QuestionsRemaining: c.Remaining(),
		MaxQuestions:       c.MaxQuestions,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		LastMessageAt:      c.LastMessageAt,
	}
}

func newMessageView(m conversation.Message) messageView {
	return messageView{
		ID:         m.ID,
		Role:       string(m.Role),
		Content:    m.Content,
		TokensUsed: m.TokensUsed,
		CreatedAt:  m.CreatedAt,
	}
}

func newStatusView(s conversation.StatusView) statusView {
	return statusView{
		AnalysisID:         s.AnalysisID,
		Available:          s.Available,
		HasConversation:    s.HasConversation,
		ConversationID:     s.ConversationID,
		IsActive:           s.IsActive,
		QuestionsAsked:     s.Asked,
		QuestionsRemaining: s.Remaining,
		MaxQuestions:       s.MaxQuestions,
	}
}
