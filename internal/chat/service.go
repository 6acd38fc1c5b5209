// Package chat answers music theory questions with a model grounded on
// the local topic and chord progression catalogs.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/gemini"
)

const (
	// historyLimit caps prior turns sent to the model.
	historyLimit = 20
	// retrievalLimit caps matches injected per catalog.
	retrievalLimit = 3

	// Per-user rolling rate limit.
	userBurstLimit  = 10
	userBurstWindow = 60 * time.Second
	// Service-wide calendar-day budget.
	dailyBudget = 1400
)

// Soft errors the handler maps to 429 responses.
var (
	// ErrRateLimited means the user sent too many messages in the last minute.
	ErrRateLimited = errors.New("too many messages, slow down")

	// ErrDailyBudget means the service-wide daily message budget is spent.
	ErrDailyBudget = errors.New("daily chat budget exhausted")
)

// apologyReply is served when the model call fails.
const apologyReply = "Sorry, I couldn't come up with an answer right now. Please try again in a moment."

const chatSystemPrompt = `You are a friendly music theory tutor inside a practice
journal app. Answer the user's question clearly and concisely, in the language the
question was asked in. When reference material is provided, ground your answer in
it and mention the relevant topic names. If the question is outside music, politely
steer back to music. Plain text only, no markdown.`

// MessageStore persists conversations.
type MessageStore interface {
	GetOrCreateConversation(ctx context.Context, userID uuid.UUID) (*db.Conversation, error)
	ListRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]db.ChatMessage, error)
	AppendExchange(ctx context.Context, conversationID uuid.UUID, userMsg, assistantMsg *db.ChatMessage, topicIDs []uuid.UUID) error
	CountUserMessagesSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountAllUserMessagesSince(ctx context.Context, since time.Time) (int, error)
}

// CatalogStore retrieves reference material for grounding.
type CatalogStore interface {
	SearchTopicsAny(ctx context.Context, keywords []string, limit int) ([]db.Topic, error)
	SearchProgressionsAny(ctx context.Context, keywords []string, limit int) ([]db.ChordProgression, error)
}

// Generator produces the reply text. Satisfied by the gemini client.
type Generator interface {
	Generate(ctx context.Context, system string, history []gemini.Message) (string, error)
}

// Reply is a chat answer plus the catalog topics it was grounded on.
type Reply struct {
	Text   string     `json:"text"`
	Topics []db.Topic `json:"topics,omitempty"`
}

// Service runs the ask-and-persist chat flow. Rate limits are checked
// before any external call; a failed generation returns an apology and
// persists nothing.
type Service struct {
	messages MessageStore
	catalog  CatalogStore
	gen      Generator
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

// NewService creates a Service. tz sets the calendar day used for the
// service-wide budget.
func NewService(messages MessageStore, catalog CatalogStore, gen Generator, tz string, log *zap.Logger) (*Service, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Service{
		messages: messages,
		catalog:  catalog,
		gen:      gen,
		loc:      loc,
		now:      time.Now,
		log:      log,
	}, nil
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ask answers one user question. ErrRateLimited and ErrDailyBudget are
// returned without touching the model or the database.
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, question string) (*Reply, error) {
	if err := s.checkLimits(ctx, userID); err != nil {
		return nil, err
	}

	conv, err := s.messages.GetOrCreateConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	prior, err := s.messages.ListRecentMessages(ctx, conv.ID, historyLimit)
	if err != nil {
		return nil, err
	}

	keywords := ExtractKeywords(question)
	topics, err := s.catalog.SearchTopicsAny(ctx, keywords, retrievalLimit)
	if err != nil {
		return nil, err
	}
	progressions, err := s.catalog.SearchProgressionsAny(ctx, keywords, retrievalLimit)
	if err != nil {
		return nil, err
	}

	history := make([]gemini.Message, 0, len(prior)+1)
	for _, m := range prior {
		role := "user"
		if m.Role == db.RoleAssistant {
			role = "model"
		}
		history = append(history, gemini.Message{Role: role, Text: m.Content})
	}
	history = append(history, gemini.Message{
		Role: "user",
		Text: buildQuestion(question, topics, progressions),
	})

	answer, err := s.gen.Generate(ctx, chatSystemPrompt, history)
	if err != nil {
		s.log.Warn("chat generation failed", zap.String("user_id", userID.String()), zap.Error(err))
		return &Reply{Text: apologyReply}, nil
	}

	topicIDs := make([]uuid.UUID, 0, len(topics))
	for _, t := range topics {
		topicIDs = append(topicIDs, t.ID)
	}
	userMsg := &db.ChatMessage{ID: uuid.New(), ConversationID: conv.ID, Role: db.RoleUser, Content: question}
	assistantMsg := &db.ChatMessage{ID: uuid.New(), ConversationID: conv.ID, Role: db.RoleAssistant, Content: answer}
	if err := s.messages.AppendExchange(ctx, conv.ID, userMsg, assistantMsg, topicIDs); err != nil {
		return nil, fmt.Errorf("persisting chat exchange: %w", err)
	}

	return &Reply{Text: answer, Topics: topics}, nil
}

// checkLimits enforces the per-user burst limit and the service-wide
// calendar-day budget.
func (s *Service) checkLimits(ctx context.Context, userID uuid.UUID) error {
	now := s.now()

	recent, err := s.messages.CountUserMessagesSince(ctx, userID, now.Add(-userBurstWindow))
	if err != nil {
		return err
	}
	if recent >= userBurstLimit {
		return ErrRateLimited
	}

	local := now.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	todayTotal, err := s.messages.CountAllUserMessagesSince(ctx, dayStart)
	if err != nil {
		return err
	}
	if todayTotal >= dailyBudget {
		return ErrDailyBudget
	}
	return nil
}

// buildQuestion wraps the user's question with the retrieved reference
// material. The block layout is fixed so answers cite consistently.
func buildQuestion(question string, topics []db.Topic, progressions []db.ChordProgression) string {
	if len(topics) == 0 && len(progressions) == 0 {
		return question
	}

	var b strings.Builder
	b.WriteString("Reference material:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "[Topic] %s: %s\n%s\n", t.Title, t.Summary, t.Body)
	}
	for _, p := range progressions {
		fmt.Fprintf(&b, "[Progression] %s (%s, in C: %s): %s\n", p.Name, p.Degrees, p.ChordsInC, p.Description)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
