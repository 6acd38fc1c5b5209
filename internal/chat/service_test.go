package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/gemini"
)

type fakeMessages struct {
	conv         db.Conversation
	prior        []db.ChatMessage
	userCount    int
	globalCount  int
	appended     [][2]*db.ChatMessage
	linkedTopics []uuid.UUID
}

func (m *fakeMessages) GetOrCreateConversation(context.Context, uuid.UUID) (*db.Conversation, error) {
	return &m.conv, nil
}

func (m *fakeMessages) ListRecentMessages(context.Context, uuid.UUID, int) ([]db.ChatMessage, error) {
	return m.prior, nil
}

func (m *fakeMessages) AppendExchange(_ context.Context, _ uuid.UUID, userMsg, assistantMsg *db.ChatMessage, topicIDs []uuid.UUID) error {
	m.appended = append(m.appended, [2]*db.ChatMessage{userMsg, assistantMsg})
	m.linkedTopics = topicIDs
	return nil
}

func (m *fakeMessages) CountUserMessagesSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return m.userCount, nil
}

func (m *fakeMessages) CountAllUserMessagesSince(context.Context, time.Time) (int, error) {
	return m.globalCount, nil
}

type fakeCatalog struct {
	topics       []db.Topic
	progressions []db.ChordProgression
	gotKeywords  []string
}

func (c *fakeCatalog) SearchTopicsAny(_ context.Context, keywords []string, _ int) ([]db.Topic, error) {
	c.gotKeywords = keywords
	return c.topics, nil
}

func (c *fakeCatalog) SearchProgressionsAny(context.Context, []string, int) ([]db.ChordProgression, error) {
	return c.progressions, nil
}

type fakeGenerator struct {
	reply   string
	err     error
	calls   int
	history []gemini.Message
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, history []gemini.Message) (string, error) {
	g.calls++
	g.history = history
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestChat(t *testing.T, messages *fakeMessages, catalog *fakeCatalog, gen *fakeGenerator) *Service {
	t.Helper()
	messages.conv = db.Conversation{ID: uuid.New()}
	s, err := NewService(messages, catalog, gen, "UTC", zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestAskPersistsExchangeAndTopics(t *testing.T) {
	topic := db.Topic{ID: uuid.New(), Title: "Dorian Mode", Summary: "A minor mode", Body: "..."}
	messages := &fakeMessages{}
	catalog := &fakeCatalog{topics: []db.Topic{topic}}
	gen := &fakeGenerator{reply: "Dorian is the second mode."}
	s := newTestChat(t, messages, catalog, gen)

	got, err := s.Ask(context.Background(), uuid.New(), "What is the dorian scale?")
	require.NoError(t, err)

	assert.Equal(t, "Dorian is the second mode.", got.Text)
	assert.Equal(t, []db.Topic{topic}, got.Topics)
	assert.Equal(t, []string{"dorian", "scale"}, catalog.gotKeywords)

	require.Len(t, messages.appended, 1)
	userMsg, assistantMsg := messages.appended[0][0], messages.appended[0][1]
	assert.Equal(t, db.RoleUser, userMsg.Role)
	assert.Equal(t, "What is the dorian scale?", userMsg.Content)
	assert.Equal(t, db.RoleAssistant, assistantMsg.Role)
	assert.Equal(t, []uuid.UUID{topic.ID}, messages.linkedTopics)
}

func TestAskInjectsReferenceMaterial(t *testing.T) {
	messages := &fakeMessages{}
	catalog := &fakeCatalog{
		topics: []db.Topic{{ID: uuid.New(), Title: "Dorian Mode", Summary: "minor mode", Body: "details"}},
		progressions: []db.ChordProgression{
			{Name: "Two Five One", Degrees: "ii-V-I", ChordsInC: "Dm7-G7-Cmaj7", Description: "jazz staple"},
		},
	}
	gen := &fakeGenerator{reply: "ok"}
	s := newTestChat(t, messages, catalog, gen)

	_, err := s.Ask(context.Background(), uuid.New(), "dorian progression?")
	require.NoError(t, err)

	last := gen.history[len(gen.history)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Text, "Reference material:")
	assert.Contains(t, last.Text, "[Topic] Dorian Mode: minor mode")
	assert.Contains(t, last.Text, "[Progression] Two Five One (ii-V-I, in C: Dm7-G7-Cmaj7): jazz staple")
	assert.Contains(t, last.Text, "Question: dorian progression?")
}

func TestAskForwardsPriorTurns(t *testing.T) {
	messages := &fakeMessages{prior: []db.ChatMessage{
		{Role: db.RoleUser, Content: "hi"},
		{Role: db.RoleAssistant, Content: "hello"},
	}}
	gen := &fakeGenerator{reply: "ok"}
	s := newTestChat(t, messages, &fakeCatalog{}, gen)

	_, err := s.Ask(context.Background(), uuid.New(), "follow-up question")
	require.NoError(t, err)

	require.Len(t, gen.history, 3)
	assert.Equal(t, "user", gen.history[0].Role)
	assert.Equal(t, "model", gen.history[1].Role)
	assert.Equal(t, "hello", gen.history[1].Text)
}

func TestAskUserRateLimit(t *testing.T) {
	messages := &fakeMessages{userCount: 10}
	gen := &fakeGenerator{reply: "ok"}
	s := newTestChat(t, messages, &fakeCatalog{}, gen)

	_, err := s.Ask(context.Background(), uuid.New(), "question")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, gen.calls)
	assert.Empty(t, messages.appended)
}

func TestAskUnderRateLimitProceeds(t *testing.T) {
	messages := &fakeMessages{userCount: 9}
	gen := &fakeGenerator{reply: "ok"}
	s := newTestChat(t, messages, &fakeCatalog{}, gen)

	_, err := s.Ask(context.Background(), uuid.New(), "question")
	assert.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestAskDailyBudget(t *testing.T) {
	messages := &fakeMessages{globalCount: 1400}
	gen := &fakeGenerator{reply: "ok"}
	s := newTestChat(t, messages, &fakeCatalog{}, gen)

	_, err := s.Ask(context.Background(), uuid.New(), "question")
	assert.ErrorIs(t, err, ErrDailyBudget)
	assert.Zero(t, gen.calls)
	assert.Empty(t, messages.appended)
}

func TestAskGenerationFailurePersistsNothing(t *testing.T) {
	messages := &fakeMessages{}
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	s := newTestChat(t, messages, &fakeCatalog{}, gen)

	got, err := s.Ask(context.Background(), uuid.New(), "question")
	require.NoError(t, err)

	assert.Equal(t, apologyReply, got.Text)
	assert.Empty(t, got.Topics)
	assert.Empty(t, messages.appended)
}
