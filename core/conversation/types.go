package conversation

import (
	"context"
	"time"

	"github.com/dmitrymomot/palmistry/pkg/llm"
)

// AnalysisStatus is the processing state of a palm reading.
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Analysis is the palm reading a conversation follows up on.
type Analysis struct {
	ID        string
	UserID    string
	Status    AnalysisStatus
	Summary   string
	Report    string
	ImageKeys []string
	CreatedAt time.Time
}

// FileRef links a palm image to its upload at the LLM provider.
type FileRef struct {
	ImageKey string `json:"image_key"`
	FileID   string `json:"file_id"`
}

// Conversation is the follow-up thread of one analysis.
// IsActive does not gate questions: an exhausted conversation rejects
// further questions whether or not it is active.
type Conversation struct {
	ID             string
	AnalysisID     string
	UserID         string
	Summary        string
	Report         string
	Files          []FileRef
	QuestionsAsked int
	MaxQuestions   int
	IsActive       bool
	CreatedAt      time.Time
	LastMessageAt  time.Time
}

// Remaining returns how many questions are left.
func (c Conversation) Remaining() int {
	return max(c.MaxQuestions-c.QuestionsAsked, 0)
}

// Exhausted reports whether the budget is spent.
func (c Conversation) Exhausted() bool {
	return c.QuestionsAsked >= c.MaxQuestions
}

// FileIDs returns the uploaded file references.
func (c Conversation) FileIDs() []string {
	ids := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		if f.FileID != "" {
			ids = append(ids, f.FileID)
		}
	}
	return ids
}

// Role of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one stored turn.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	TokensUsed     int
	Cost           float64
	CreatedAt      time.Time
}

// Exchange is the result of a successful question.
type Exchange struct {
	Conversation       Conversation
	UserMessage        Message
	AssistantMessage   Message
	QuestionsRemaining int
	TokensUsed         int
	Cost               float64
}

// HistoryPage is a read-only view of a conversation.
type HistoryPage struct {
	Conversation Conversation
	Messages     []Message
	Asked        int
	Remaining    int
}

// StatusView tells a client whether follow-up questions are possible.
type StatusView struct {
	AnalysisID      string
	Available       bool
	HasConversation bool
	ConversationID  string
	IsActive        bool
	Asked           int
	Remaining       int
	MaxQuestions    int
}

// Repository persists analyses, conversations and messages.
type Repository interface {
	GetAnalysis(ctx context.Context, id string) (Analysis, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
	GetConversationByAnalysis(ctx context.Context, analysisID string) (Conversation, error)
	// CreateConversation returns ErrConversationExists when the analysis
	// already has one.
	CreateConversation(ctx context.Context, c Conversation) error
	UpdateFiles(ctx context.Context, conversationID string, files []FileRef) error
	// ListMessages returns the latest limit messages in chronological order.
	// A limit of zero or less returns all of them.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	// RecordExchange stores both messages and increments QuestionsAsked in
	// one atomic step, failing with ErrBudgetExhausted if the budget is
	// already spent. It returns the updated conversation.
	RecordExchange(ctx context.Context, conversationID string, question, answer Message) (Conversation, error)
}

// ImageSource loads palm images by storage key.
type ImageSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Completer is the LLM capability.
type Completer = llm.Completer

// FileService is the provider file capability.
type FileService = llm.FileService
