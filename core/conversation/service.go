package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/pkg/async"
	"github.com/dmitrymomot/palmistry/pkg/contentsafety"
	"github.com/dmitrymomot/palmistry/pkg/llm"
)

// Service runs follow-up conversations on completed analyses.
type Service struct {
	repo      Repository
	llm       Completer
	files     FileService
	images    ImageSource
	validator *contentsafety.Validator
	cfg       Config
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig replaces the configuration.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithFiles enables uploading palm images to the LLM provider.
// Both collaborators are needed; without them questions are answered from
// the text snapshot only.
func WithFiles(files FileService, images ImageSource) Option {
	return func(s *Service) {
		s.files = files
		s.images = images
	}
}

// WithValidator replaces the default content policy.
func WithValidator(v *contentsafety.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator for conversation and message IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service.
func NewService(repo Repository, completer Completer, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		llm:       completer,
		validator: contentsafety.Default(),
		cfg:       DefaultConfig(),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg = s.cfg.normalize()
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// GetOrCreate returns the conversation for an analysis, creating it on
// first use. The analysis must exist, belong to userID and be completed.
// An existing conversation is returned unchanged.
func (s *Service) GetOrCreate(ctx context.Context, analysisID, userID string) (Conversation, error) {
	const op = "GetOrCreate"

	a, err := s.ownedAnalysis(ctx, op, analysisID, userID)
	if err != nil {
		return Conversation{}, err
	}
	if a.Status != AnalysisCompleted {
		return Conversation{}, fail(op, KindNotCompleted, reasonNotCompleted, nil)
	}

	existing, err := s.repo.GetConversationByAnalysis(ctx, analysisID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, ErrConversationNotFound):
		return Conversation{}, s.internal(ctx, op, err)
	}

	now := s.now().UTC()
	conv := Conversation{
		ID:           s.newID(),
		AnalysisID:   a.ID,
		UserID:       a.UserID,
		Summary:      a.Summary,
		Report:       a.Report,
		Files:        s.uploadImages(ctx, a.ImageKeys),
		MaxQuestions: s.cfg.MaxQuestions,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		if errors.Is(err, ErrConversationExists) {
			// Lost a creation race; the winner's row is the conversation.
			winner, err := s.repo.GetConversationByAnalysis(ctx, analysisID)
			if err != nil {
				return Conversation{}, s.internal(ctx, op, err)
			}
			return winner, nil
		}
		return Conversation{}, s.internal(ctx, op, err)
	}

	s.logger.InfoContext(ctx, "follow-up conversation created",
		logger.ConversationID(conv.ID),
		logger.AnalysisID(a.ID),
		logger.UserID(userID),
		logger.Count("files", len(conv.Files)),
	)
	return conv, nil
}

// Ask answers one follow-up question. Nothing is stored unless the model
// answers and the budget still has room at commit time.
func (s *Service) Ask(ctx context.Context, conversationID, userID, question string) (Exchange, error) {
	const op = "Ask"

	conv, err := s.ownedConversation(ctx, op, conversationID, userID)
	if err != nil {
		return Exchange{}, err
	}

	if conv.Exhausted() {
		questionsTotal.WithLabelValues("budget_exceeded").Inc()
		return Exchange{}, fail(op, KindBudgetExceeded, reasonBudget, ErrBudgetExhausted)
	}

	if err := s.validator.Validate(question); err != nil {
		var v *contentsafety.Violation
		reason := err.Error()
		code := "rejected"
		if errors.As(err, &v) {
			reason, code = v.Message, v.Code()
		}
		policyRejectionsTotal.WithLabelValues(code).Inc()
		questionsTotal.WithLabelValues("policy_rejected").Inc()
		s.logger.InfoContext(ctx, "follow-up question rejected",
			logger.ConversationID(conv.ID),
			logger.UserID(userID),
			logger.Reason(code),
		)
		return Exchange{}, fail(op, KindPolicyRejected, reason, err)
	}

	conv = s.refreshFiles(ctx, conv)

	history, err := s.repo.ListMessages(ctx, conv.ID, 0)
	if err != nil {
		return Exchange{}, s.internal(ctx, op, err)
	}

	completion, err := s.complete(ctx, conv, history, question)
	if err != nil {
		questionsTotal.WithLabelValues("upstream_error").Inc()
		s.logger.ErrorContext(ctx, "follow-up completion failed",
			logger.ConversationID(conv.ID),
			logger.AnalysisID(conv.AnalysisID),
			logger.Error(err),
		)
		return Exchange{}, fail(op, KindUpstream, reasonUpstream, err)
	}

	now := s.now().UTC()
	cost := s.cost(completion.TotalTokens)
	userMsg := Message{
		ID:             s.newID(),
		ConversationID: conv.ID,
		Role:           RoleUser,
		Content:        question,
		TokensUsed:     completion.PromptTokens,
		CreatedAt:      now,
	}
	assistantMsg := Message{
		ID:             s.newID(),
		ConversationID: conv.ID,
		Role:           RoleAssistant,
		Content:        completion.Text,
		TokensUsed:     completion.CompletionTokens,
		Cost:           cost,
		CreatedAt:      now.Add(time.Microsecond),
	}

	updated, err := s.repo.RecordExchange(ctx, conv.ID, userMsg, assistantMsg)
	if err != nil {
		if errors.Is(err, ErrBudgetExhausted) {
			questionsTotal.WithLabelValues("budget_exceeded").Inc()
			s.logger.WarnContext(ctx, "follow-up budget spent by a concurrent request",
				logger.ConversationID(conv.ID),
				logger.Count("tokens", completion.TotalTokens),
				logger.Result("discarded"),
			)
			return Exchange{}, fail(op, KindBudgetExceeded, reasonBudget, err)
		}
		if errors.Is(err, ErrConversationNotFound) {
			return Exchange{}, fail(op, KindNotFound, reasonNotFound, err)
		}
		return Exchange{}, s.internal(ctx, op, err)
	}

	questionsTotal.WithLabelValues("answered").Inc()
	llmTokensTotal.Add(float64(completion.TotalTokens))

	return Exchange{
		Conversation:       updated,
		UserMessage:        userMsg,
		AssistantMessage:   assistantMsg,
		QuestionsRemaining: updated.Remaining(),
		TokensUsed:         completion.TotalTokens,
		Cost:               cost,
	}, nil
}

// History returns the latest limit messages of a conversation in
// chronological order. Limits outside 1..HistoryLimit use HistoryLimit.
func (s *Service) History(ctx context.Context, conversationID, userID string, limit int) (HistoryPage, error) {
	const op = "History"

	conv, err := s.ownedConversation(ctx, op, conversationID, userID)
	if err != nil {
		return HistoryPage{}, err
	}

	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	msgs, err := s.repo.ListMessages(ctx, conv.ID, limit)
	if err != nil {
		return HistoryPage{}, s.internal(ctx, op, err)
	}

	return HistoryPage{
		Conversation: conv,
		Messages:     msgs,
		Asked:        conv.QuestionsAsked,
		Remaining:    conv.Remaining(),
	}, nil
}

// Status reports whether follow-up questions are available for an analysis.
// An analysis of another user is reported as not found.
func (s *Service) Status(ctx context.Context, analysisID, userID string) (StatusView, error) {
	const op = "Status"

	a, err := s.ownedAnalysis(ctx, op, analysisID, userID)
	if err != nil {
		if KindOf(err) == KindNotOwned {
			return StatusView{}, fail(op, KindNotFound, reasonAnalysisAbsent, ErrAnalysisNotFound)
		}
		return StatusView{}, err
	}

	view := StatusView{
		AnalysisID:   a.ID,
		Available:    a.Status == AnalysisCompleted,
		Remaining:    s.cfg.MaxQuestions,
		MaxQuestions: s.cfg.MaxQuestions,
	}

	conv, err := s.repo.GetConversationByAnalysis(ctx, analysisID)
	switch {
	case errors.Is(err, ErrConversationNotFound):
		return view, nil
	case err != nil:
		return StatusView{}, s.internal(ctx, op, err)
	}

	view.HasConversation = true
	view.ConversationID = conv.ID
	view.IsActive = conv.IsActive
	view.Asked = conv.QuestionsAsked
	view.Remaining = conv.Remaining()
	view.MaxQuestions = conv.MaxQuestions
	return view, nil
}

func (s *Service) ownedAnalysis(ctx context.Context, op, analysisID, userID string) (Analysis, error) {
	a, err := s.repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		if errors.Is(err, ErrAnalysisNotFound) {
			return Analysis{}, fail(op, KindNotFound, reasonAnalysisAbsent, err)
		}
		return Analysis{}, s.internal(ctx, op, err)
	}
	if userID == "" || a.UserID != userID {
		return Analysis{}, fail(op, KindNotOwned, reasonNotOwned, nil)
	}
	return a, nil
}

// ownedConversation masks foreign conversations as missing.
func (s *Service) ownedConversation(ctx context.Context, op, conversationID, userID string) (Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return Conversation{}, fail(op, KindNotFound, reasonNotFound, err)
		}
		return Conversation{}, s.internal(ctx, op, err)
	}
	if userID == "" || conv.UserID != userID {
		return Conversation{}, fail(op, KindNotFound, reasonNotFound, ErrConversationNotFound)
	}
	return conv, nil
}

func (s *Service) complete(ctx context.Context, conv Conversation, history []Message, question string) (llm.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	defer func() { llmDuration.Observe(time.Since(start).Seconds()) }()

	return s.llm.Complete(ctx, llm.Request{
		Messages:    buildMessages(conv, history, question, conv.FileIDs()),
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
}

// uploadImages loads and uploads palm images concurrently. Failed images
// are logged and left without a file ID so a later question retries them.
func (s *Service) uploadImages(ctx context.Context, keys []string) []FileRef {
	if len(keys) == 0 {
		return nil
	}
	refs := make([]FileRef, len(keys))
	for i, k := range keys {
		refs[i] = FileRef{ImageKey: k}
	}
	if s.files == nil || s.images == nil {
		return refs
	}

	ids, _ := async.Map(ctx, keys, func(ctx context.Context, key string) (string, error) {
		id, err := s.uploadImage(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "palm image upload failed",
				logger.Key("image_key", key),
				logger.Error(err),
			)
			return "", nil
		}
		return id, nil
	})
	for i := range refs {
		if i < len(ids) {
			refs[i].FileID = ids[i]
		}
	}
	return refs
}

func (s *Service) uploadImage(ctx context.Context, key string) (string, error) {
	data, err := s.images.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	id, err := s.files.Upload(ctx, path.Base(key), data)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return id, nil
}

// refreshFiles re-uploads images whose provider file is missing or expired.
// Failures degrade to answering without those images.
func (s *Service) refreshFiles(ctx context.Context, conv Conversation) Conversation {
	if s.files == nil || s.images == nil || len(conv.Files) == 0 {
		return conv
	}

	valid := map[string]bool{}
	if ids := conv.FileIDs(); len(ids) > 0 {
		v, err := s.files.Validate(ctx, ids)
		if err != nil {
			s.logger.WarnContext(ctx, "file validation failed",
				logger.ConversationID(conv.ID),
				logger.Error(err),
			)
			return conv
		}
		valid = v
	}

	var stale []string
	for _, f := range conv.Files {
		if f.FileID == "" || !valid[f.FileID] {
			stale = append(stale, f.ImageKey)
		}
	}
	if len(stale) == 0 {
		return conv
	}

	fresh := s.uploadImages(ctx, stale)
	byKey := make(map[string]string, len(fresh))
	for _, f := range fresh {
		byKey[f.ImageKey] = f.FileID
	}

	files := make([]FileRef, len(conv.Files))
	for i, f := range conv.Files {
		if id, ok := byKey[f.ImageKey]; ok {
			f.FileID = id
		}
		files[i] = f
	}

	if err := s.repo.UpdateFiles(ctx, conv.ID, files); err != nil {
		s.logger.WarnContext(ctx, "file references not saved",
			logger.ConversationID(conv.ID),
			logger.Error(err),
		)
	}
	conv.Files = files
	return conv
}

func (s *Service) cost(tokens int) float64 {
	c := float64(tokens) / 1000 * s.cfg.CostPer1KTokens
	return math.Round(c*1e6) / 1e6
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "conversation repository failure",
		logger.Action(op),
		logger.Error(err),
	)
	return fail(op, KindInternal, reasonInternal, err)
}
