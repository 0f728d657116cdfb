package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tejaspachgade2315/Voosh/internal/domain"
	"github.com/tejaspachgade2315/Voosh/internal/platform/kv"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

const (
	sessionKeyPrefix = "session:"
	historyKeyPrefix = "history:"

	defaultHistoryLimit = 100
)

type SessionService interface {
	CreateSession(ctx context.Context) (*domain.Session, error)

	// GetSession returns nil when the session is absent or expired.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ValidateSession reports whether the session exists and, when it does,
	// refreshes the TTL of both the session record and its history list.
	// Liveness check and mutation on purpose: an active conversation must
	// never expire mid-use.
	ValidateSession(ctx context.Context, id string) (bool, error)

	AddMessage(ctx context.Context, sessionID, role, content string) (*domain.Message, error)

	// GetHistory returns the most recent limit messages, oldest first.
	GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// ClearHistory drops the history list and zeroes the message count but
	// keeps the session alive.
	ClearHistory(ctx context.Context, sessionID string) error

	DeleteSession(ctx context.Context, sessionID string) error
}

type sessionService struct {
	log   *logger.Logger
	store kv.Store
	ttl   time.Duration
}

func NewSessionService(log *logger.Logger, store kv.Store, ttl time.Duration) (SessionService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionService{
		log:   log.With("service", "SessionService"),
		store: store,
		ttl:   ttl,
	}, nil
}

func sessionKey(id string) string { return sessionKeyPrefix + id }
func historyKey(id string) string { return historyKeyPrefix + id }

// withRetry runs a store operation and retries exactly once on failure. A
// second failure is wrapped as ErrStoreUnavailable and scoped to the request.
func (s *sessionService) withRetry(op func() error) error {
	err := op()
	if err == nil || errors.Is(err, kv.ErrNotFound) || errors.Is(err, kv.ErrWrongType) {
		return err
	}
	s.log.Warn("kv operation failed, retrying once", "error", err)
	if err = op(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *sessionService) CreateSession(ctx context.Context) (*domain.Session, error) {
	sess := domain.Session{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		MessageCount: 0,
	}
	if err := s.writeSession(ctx, &sess); err != nil {
		return nil, err
	}
	s.log.Info("session created", "session_id", sess.ID)
	return &sess, nil
}

func (s *sessionService) writeSession(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.withRetry(func() error {
		return s.store.Set(ctx, sessionKey(sess.ID), string(raw), s.ttl)
	})
}

func (s *sessionService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var raw string
	err := s.withRetry(func() error {
		var opErr error
		raw, opErr = s.store.Get(ctx, sessionKey(id))
		return opErr
	})
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *sessionService) ValidateSession(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.withRetry(func() error {
		var opErr error
		ok, opErr = s.store.Exists(ctx, sessionKey(id))
		return opErr
	})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if _, err := s.store.RefreshTTL(ctx, sessionKey(id), s.ttl); err != nil {
		s.log.Warn("session TTL refresh failed", "session_id", id, "error", err)
	}
	// The history list may not exist yet; a false return here is fine.
	if _, err := s.store.RefreshTTL(ctx, historyKey(id), s.ttl); err != nil {
		s.log.Warn("history TTL refresh failed", "session_id", id, "error", err)
	}
	return true, nil
}

func (s *sessionService) AddMessage(ctx context.Context, sessionID, role, content string) (*domain.Message, error) {
	if role != domain.RoleUser && role != domain.RoleAssistant {
		return nil, fmt.Errorf("invalid message role %q", role)
	}

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionInvalid
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	// Two writes, not atomic: a crash between them can leave the counter one
	// behind the list. Sessions are single-client, so this is acceptable.
	if err := s.withRetry(func() error {
		_, opErr := s.store.Append(ctx, historyKey(sessionID), string(raw))
		return opErr
	}); err != nil {
		return nil, err
	}

	sess.MessageCount++
	if err := s.writeSession(ctx, sess); err != nil {
		return nil, err
	}

	if _, err := s.store.RefreshTTL(ctx, historyKey(sessionID), s.ttl); err != nil {
		s.log.Warn("history TTL refresh failed", "session_id", sessionID, "error", err)
	}
	return &msg, nil
}

func (s *sessionService) GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var rows []string
	err := s.withRetry(func() error {
		var opErr error
		rows, opErr = s.store.Range(ctx, historyKey(sessionID), int64(-limit), -1)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		var msg domain.Message
		if err := json.Unmarshal([]byte(row), &msg); err != nil {
			s.log.Warn("skipping undecodable history entry", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *sessionService) ClearHistory(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionInvalid
	}

	if err := s.withRetry(func() error {
		_, opErr := s.store.Delete(ctx, historyKey(sessionID))
		return opErr
	}); err != nil {
		return err
	}

	sess.MessageCount = 0
	if err := s.writeSession(ctx, sess); err != nil {
		return err
	}
	s.log.Info("history cleared", "session_id", sessionID)
	return nil
}

func (s *sessionService) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.withRetry(func() error {
		_, opErr := s.store.Delete(ctx, sessionKey(sessionID), historyKey(sessionID))
		return opErr
	})
	if err != nil {
		return err
	}
	s.log.Info("session deleted", "session_id", sessionID)
	return nil
}
