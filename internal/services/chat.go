package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tejaspachgade2315/Voosh/internal/domain"
	"github.com/tejaspachgade2315/Voosh/internal/platform/gemini"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
	"github.com/tejaspachgade2315/Voosh/internal/vectorindex"
)

const (
	historyWindow   = 10
	retrievalTopK   = 5
	sourcePrefixLen = 200

	emptyCorpusAnswer = "I don't have any news articles indexed yet, so I can't answer that. Please run the ingestion job and try again."

	chatSystemPrompt = "You are a news assistant. Answer the user's question using only " +
		"the numbered context passages provided with it. Cite passages as [1], [2] " +
		"and so on. If the passages don't cover the question, say so plainly " +
		"instead of speculating."
)

type ChatService interface {
	// ProcessQuery runs the full retrieval pipeline and blocks until the
	// answer is complete.
	ProcessQuery(ctx context.Context, sessionID, query string) (*domain.ChatResult, error)

	// ProcessQueryStream behaves like ProcessQuery but forwards answer
	// deltas to onDelta, in order, before returning. The concatenation of
	// deltas always equals the returned answer.
	ProcessQueryStream(ctx context.Context, sessionID, query string, onDelta func(delta string)) (*domain.ChatResult, error)

	IndexedDocumentCount() int
}

type chatService struct {
	log      *logger.Logger
	sessions SessionService
	index    *vectorindex.Index
	genai    gemini.Client
}

func NewChatService(log *logger.Logger, sessions SessionService, index *vectorindex.Index, genai gemini.Client) (ChatService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service required")
	}
	if index == nil {
		return nil, fmt.Errorf("vector index required")
	}
	if genai == nil {
		return nil, fmt.Errorf("generation client required")
	}
	return &chatService{
		log:      log.With("service", "ChatService"),
		sessions: sessions,
		index:    index,
		genai:    genai,
	}, nil
}

func (s *chatService) ProcessQuery(ctx context.Context, sessionID, query string) (*domain.ChatResult, error) {
	return s.process(ctx, sessionID, query, nil)
}

func (s *chatService) ProcessQueryStream(ctx context.Context, sessionID, query string, onDelta func(delta string)) (*domain.ChatResult, error) {
	return s.process(ctx, sessionID, query, onDelta)
}

func (s *chatService) IndexedDocumentCount() int {
	return s.index.Size()
}

// process is the per-request state machine: validate, fetch history,
// retrieve, persist user turn, generate, persist assistant turn. onDelta nil
// means blocking mode.
func (s *chatService) process(ctx context.Context, sessionID, query string, onDelta func(delta string)) (*domain.ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query required")
	}

	ok, err := s.sessions.ValidateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionInvalid
	}

	history, err := s.sessions.GetHistory(ctx, sessionID, historyWindow)
	if err != nil {
		return nil, err
	}

	if s.index.Size() == 0 {
		if onDelta != nil {
			onDelta(emptyCorpusAnswer)
		}
		if _, err := s.sessions.AddMessage(ctx, sessionID, domain.RoleAssistant, emptyCorpusAnswer); err != nil {
			return nil, err
		}
		return &domain.ChatResult{Answer: emptyCorpusAnswer, Sources: []domain.Source{}}, nil
	}

	results, err := s.index.Search(ctx, query, retrievalTopK)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.AddMessage(ctx, sessionID, domain.RoleUser, query); err != nil {
		return nil, err
	}

	answer, err := s.generate(ctx, query, history, results, onDelta)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.AddMessage(ctx, sessionID, domain.RoleAssistant, answer); err != nil {
		return nil, err
	}

	return &domain.ChatResult{
		Answer:  answer,
		Sources: buildSources(results),
	}, nil
}

// generate invokes the generation component and recovers from its failures
// with a context-derived summary, so upstream rate limiting never aborts the
// pipeline. In streaming mode a partial answer already sent to the sink wins
// over the fallback, keeping the deltas equal to the returned answer.
func (s *chatService) generate(ctx context.Context, query string, history []domain.Message, results []domain.SearchResult, onDelta func(delta string)) (string, error) {
	system := chatSystemPrompt
	turns := buildTurns(query, history, results)

	if onDelta == nil {
		answer, err := s.genai.GenerateText(ctx, system, turns)
		if err == nil {
			return answer, nil
		}
		s.log.Warn("generation failed, using context fallback", "error", err)
		return s.fallbackAnswer(query, results)
	}

	var streamed strings.Builder
	answer, err := s.genai.StreamText(ctx, system, turns, func(delta string) {
		streamed.WriteString(delta)
		onDelta(delta)
	})
	if err == nil {
		return answer, nil
	}
	s.log.Warn("streaming generation failed, using context fallback", "error", err, "streamed_bytes", streamed.Len())

	if streamed.Len() > 0 {
		return streamed.String(), nil
	}
	fallback, fbErr := s.fallbackAnswer(query, results)
	if fbErr != nil {
		return "", fbErr
	}
	onDelta(fallback)
	return fallback, nil
}

func (s *chatService) fallbackAnswer(query string, results []domain.SearchResult) (string, error) {
	if len(results) == 0 {
		return "", ErrGenerationFailed
	}

	var sb strings.Builder
	sb.WriteString("I couldn't reach the answer generator just now, but here is the most relevant reporting for \"")
	sb.WriteString(query)
	sb.WriteString("\":\n")
	for i, r := range results {
		if i >= 3 {
			break
		}
		sb.WriteString(fmt.Sprintf("\n- %s (%s): %s", r.Metadata.Title, r.Metadata.Source, textPrefix(r.Text)))
	}
	return sb.String(), nil
}

// buildTurns maps stored history onto generation turns and appends the
// current question together with its numbered context passages.
func buildTurns(query string, history []domain.Message, results []domain.SearchResult) []gemini.Turn {
	turns := make([]gemini.Turn, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}
		turns = append(turns, gemini.Turn{Role: role, Text: msg.Content})
	}

	var sb strings.Builder
	sb.WriteString("Context passages:\n")
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("[%d] %s — %s (%s)\n%s\n\n", i+1, r.Metadata.Title, r.Metadata.Source, r.Metadata.PublishedAt.Format("2006-01-02"), r.Text))
	}
	sb.WriteString("Question: ")
	sb.WriteString(query)

	return append(turns, gemini.Turn{Role: "user", Text: sb.String()})
}

func buildSources(results []domain.SearchResult) []domain.Source {
	out := make([]domain.Source, 0, len(results))
	for _, r := range results {
		out = append(out, domain.Source{
			TextPrefix: textPrefix(r.Text),
			Score:      r.Score,
			Metadata:   r.Metadata,
		})
	}
	return out
}

func textPrefix(text string) string {
	runes := []rune(text)
	if len(runes) <= sourcePrefixLen {
		return text
	}
	return string(runes[:sourcePrefixLen]) + "..."
}
