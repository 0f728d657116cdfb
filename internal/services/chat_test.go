package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tejaspachgade2315/Voosh/internal/domain"
	"github.com/tejaspachgade2315/Voosh/internal/platform/gemini"
	"github.com/tejaspachgade2315/Voosh/internal/vectorindex"
)

// keywordEmbedder scores texts on two fixed topics so retrieval order is
// deterministic without a real embedding backend.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		lower := strings.ToLower(text)
		vec := []float32{0.1, 0.1}
		if strings.Contains(lower, "weather") || strings.Contains(lower, "rain") {
			vec[0] = 1
		}
		if strings.Contains(lower, "match") || strings.Contains(lower, "league") {
			vec[1] = 1
		}
		out[i] = vec
	}
	return out, nil
}

// scriptedGenerator is a canned generation client. Deltas drive StreamText;
// err makes both paths fail after any deltas are forwarded.
type scriptedGenerator struct {
	answer string
	deltas []string
	err    error
}

func (g *scriptedGenerator) GenerateText(_ context.Context, _ string, _ []gemini.Turn) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *scriptedGenerator) StreamText(_ context.Context, _ string, _ []gemini.Turn, onDelta func(delta string)) (string, error) {
	var sb strings.Builder
	for _, d := range g.deltas {
		sb.WriteString(d)
		onDelta(d)
	}
	if g.err != nil {
		return "", g.err
	}
	return sb.String(), nil
}

func newTestChatService(t *testing.T, gen gemini.Client, seedDocs bool) (ChatService, SessionService) {
	t.Helper()
	log := testLogger(t)

	idx, err := vectorindex.New(log, keywordEmbedder{}, filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if seedDocs {
		err := idx.AddDocuments(context.Background(), []domain.DocumentChunk{
			{Text: "Heavy rain and stormy weather forecast for the coast", Metadata: domain.ChunkMetadata{Title: "Storm warning", Source: "BBC News"}},
			{Text: "The league match ended in a late winner", Metadata: domain.ChunkMetadata{Title: "Match report", Source: "CNN"}},
		})
		if err != nil {
			t.Fatalf("seed index: %v", err)
		}
	}

	sessions := newTestSessionService(t)
	svc, err := NewChatService(log, sessions, idx, gen)
	if err != nil {
		t.Fatalf("chat service: %v", err)
	}
	return svc, sessions
}

func TestProcessQuery(t *testing.T) {
	gen := &scriptedGenerator{answer: "Storms are expected along the coast [1]."}
	svc, sessions := newTestChatService(t, gen, true)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	result, err := svc.ProcessQuery(ctx, sess.ID, "what is the weather like")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Answer != gen.answer {
		t.Fatalf("answer = %q", result.Answer)
	}
	if len(result.Sources) == 0 {
		t.Fatal("no sources returned")
	}
	if result.Sources[0].Metadata.Title != "Storm warning" {
		t.Fatalf("top source = %q", result.Sources[0].Metadata.Title)
	}

	history, err := sessions.GetHistory(ctx, sess.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Role != domain.RoleUser || history[1].Role != domain.RoleAssistant {
		t.Fatalf("history = %#v", history)
	}
	if history[1].Content != gen.answer {
		t.Fatalf("persisted answer = %q", history[1].Content)
	}
}

func TestProcessQueryInvalidSession(t *testing.T) {
	svc, _ := newTestChatService(t, &scriptedGenerator{answer: "x"}, true)

	if _, err := svc.ProcessQuery(context.Background(), "no-such-session", "hello"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestProcessQueryEmptyQuery(t *testing.T) {
	svc, sessions := newTestChatService(t, &scriptedGenerator{answer: "x"}, true)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := svc.ProcessQuery(ctx, sess.ID, "   "); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestProcessQueryEmptyCorpus(t *testing.T) {
	svc, sessions := newTestChatService(t, &scriptedGenerator{answer: "x"}, false)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	result, err := svc.ProcessQuery(ctx, sess.ID, "anything")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Answer != emptyCorpusAnswer {
		t.Fatalf("answer = %q", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("sources = %#v", result.Sources)
	}

	// Only the canned assistant turn is recorded.
	history, err := sessions.GetHistory(ctx, sess.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Role != domain.RoleAssistant {
		t.Fatalf("history = %#v", history)
	}
}

func TestProcessQueryGenerationFallback(t *testing.T) {
	gen := &scriptedGenerator{err: fmt.Errorf("quota exceeded")}
	svc, sessions := newTestChatService(t, gen, true)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	result, err := svc.ProcessQuery(ctx, sess.ID, "weather update")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(result.Answer, "couldn't reach the answer generator") {
		t.Fatalf("fallback answer = %q", result.Answer)
	}
	if !strings.Contains(result.Answer, "Storm warning") {
		t.Fatalf("fallback missing top hit: %q", result.Answer)
	}
}

func TestProcessQueryStream(t *testing.T) {
	gen := &scriptedGenerator{deltas: []string{"Storms ", "are ", "coming."}}
	svc, sessions := newTestChatService(t, gen, true)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got []string
	result, err := svc.ProcessQueryStream(ctx, sess.ID, "weather update", func(delta string) {
		got = append(got, delta)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if strings.Join(got, "") != result.Answer {
		t.Fatalf("deltas %q != answer %q", strings.Join(got, ""), result.Answer)
	}
	if result.Answer != "Storms are coming." {
		t.Fatalf("answer = %q", result.Answer)
	}

	history, err := sessions.GetHistory(ctx, sess.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[1].Content != result.Answer {
		t.Fatalf("history = %#v", history)
	}
}

func TestProcessQueryStreamPartialFailure(t *testing.T) {
	gen := &scriptedGenerator{deltas: []string{"Partial "}, err: fmt.Errorf("stream cut")}
	svc, sessions := newTestChatService(t, gen, true)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got strings.Builder
	result, err := svc.ProcessQueryStream(ctx, sess.ID, "weather update", func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	// The answer keeps what was already sent; it never switches mid-stream.
	if result.Answer != "Partial " || got.String() != result.Answer {
		t.Fatalf("answer = %q, deltas = %q", result.Answer, got.String())
	}
}

func TestProcessQueryStreamFallbackDelta(t *testing.T) {
	gen := &scriptedGenerator{err: fmt.Errorf("unreachable")}
	svc, sessions := newTestChatService(t, gen, true)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got strings.Builder
	result, err := svc.ProcessQueryStream(ctx, sess.ID, "weather update", func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if got.String() != result.Answer {
		t.Fatalf("deltas %q != answer %q", got.String(), result.Answer)
	}
	if !strings.Contains(result.Answer, "couldn't reach the answer generator") {
		t.Fatalf("answer = %q", result.Answer)
	}
}
