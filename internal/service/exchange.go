// Package service provides the per-turn orchestration logic of the gateway.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/internal/events"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/provider"
	"github.com/vidiria/verilo-ai/internal/store"
	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/metrics"
)

var (
	// ErrEmptyMessage is returned for empty or whitespace-only user text.
	ErrEmptyMessage = errors.New("message text is required")
	// ErrExchangeInFlight is returned when a conversation already has an
	// exchange awaiting a response. Submits are rejected, never queued.
	ErrExchangeInFlight = errors.New("an exchange is already in flight for this conversation")
	// ErrTurnSuperseded is returned when a provider response arrives after
	// the turn was cancelled; the response is discarded.
	ErrTurnSuperseded = errors.New("turn superseded")
)

// ExchangeService coordinates one exchange at a time per conversation:
// validate, call the provider, advance the conversation and commit. Each
// exchange carries a turn token so responses outliving a cancellation are
// dropped instead of mutating state.
type ExchangeService struct {
	registry *provider.Registry
	store    *store.Store
	events   *events.Publisher
	timeout  time.Duration
	logger   *logger.Logger

	mu       sync.Mutex
	inflight map[string]string // conversation id -> turn token
}

// NewExchangeService creates the exchange orchestrator. events may be nil.
func NewExchangeService(
	registry *provider.Registry,
	st *store.Store,
	ev *events.Publisher,
	timeout time.Duration,
	log *logger.Logger,
) *ExchangeService {
	return &ExchangeService{
		registry: registry,
		store:    st,
		events:   ev,
		timeout:  timeout,
		logger:   log,
		inflight: make(map[string]string),
	}
}

// SendTurn runs one full exchange. Validation failures return before any
// state changes or network calls; provider failures still advance the
// conversation with a visible error message and report Failed in the
// response.
func (s *ExchangeService) SendTurn(ctx context.Context, req *model.SendTurnRequest) (*model.SendTurnResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := provider.Resolve(req.Model); err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = s.store.NewConversation(req.Model).ID
	} else {
		if err := s.store.Open(conversationID); err != nil {
			return nil, err
		}
	}

	token, err := s.acquire(conversationID)
	if err != nil {
		return nil, err
	}

	userMsg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleUser,
		Content:   text,
		Atts:      req.Attachments,
		CreatedAt: time.Now(),
	}
	if err := s.store.Append(conversationID, userMsg); err != nil {
		s.release(conversationID, token)
		return nil, err
	}

	conv, err := s.store.Get(conversationID)
	if err != nil {
		s.release(conversationID, token)
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, callErr := s.registry.Complete(callCtx, &provider.Request{
		Model:    req.Model,
		Messages: conv.Messages,
		Extended: req.Extended,
	})
	latencyMs := time.Since(start).Milliseconds()

	if !s.release(conversationID, token) {
		// The turn was cancelled while the call was in flight; whatever
		// came back belongs to an abandoned exchange.
		s.logger.Info("discarding stale provider response",
			zap.String("conversation_id", conversationID),
			zap.String("turn_token", token),
		)
		return nil, ErrTurnSuperseded
	}

	if callErr != nil {
		return s.failTurn(ctx, conversationID, token, req.Model, &userMsg, callErr)
	}

	reply := model.Message{
		ID:        resp.ID,
		Role:      model.RoleAssistant,
		Content:   resp.Text,
		CreatedAt: time.Now(),
		Model:     &req.Model,
		LatencyMs: &latencyMs,
	}
	if reply.ID == "" {
		reply.ID = uuid.Must(uuid.NewV7()).String()
	}

	if err := s.store.Append(conversationID, reply); err != nil {
		return nil, err
	}
	if err := s.store.Commit(ctx, conversationID); err != nil {
		return nil, err
	}

	s.publish(ctx, conversationID, token, model.OutcomeCompleted, req.Model, "")
	metrics.ExchangesTotal.WithLabelValues(string(model.OutcomeCompleted)).Inc()

	return &model.SendTurnResponse{
		ConversationID: conversationID,
		UserMessage:    &userMsg,
		Reply:          &reply,
	}, nil
}

// Cancel abandons the in-flight exchange of a conversation, if any. The
// underlying network call is not interrupted; its response will be dropped
// by the turn-token check.
func (s *ExchangeService) Cancel(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, conversationID)
}

// failTurn advances the conversation with a visible error message so the
// transcript reflects the attempt, then reports the failed exchange.
func (s *ExchangeService) failTurn(
	ctx context.Context,
	conversationID, token, modelID string,
	userMsg *model.Message,
	callErr error,
) (*model.SendTurnResponse, error) {
	outcome := model.OutcomeFailed
	if errors.Is(callErr, context.DeadlineExceeded) {
		outcome = model.OutcomeTimeout
	}

	errReply := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleAssistant,
		Content:   "Erro: " + callErr.Error(),
		CreatedAt: time.Now(),
	}
	if err := s.store.Append(conversationID, errReply); err != nil {
		return nil, err
	}
	if err := s.store.Commit(ctx, conversationID); err != nil {
		return nil, err
	}

	s.logger.Warn("exchange failed",
		zap.String("conversation_id", conversationID),
		zap.String("model", modelID),
		zap.Error(callErr),
	)
	s.publish(ctx, conversationID, token, outcome, modelID, callErr.Error())
	metrics.ExchangesTotal.WithLabelValues(string(outcome)).Inc()

	return &model.SendTurnResponse{
		ConversationID: conversationID,
		UserMessage:    userMsg,
		Reply:          &errReply,
		Failed:         true,
		Error:          callErr.Error(),
	}, nil
}

// acquire registers a turn token for the conversation, rejecting when one is
// already registered.
func (s *ExchangeService) acquire(conversationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[conversationID]; busy {
		return "", ErrExchangeInFlight
	}
	token := uuid.NewString()
	s.inflight[conversationID] = token
	return token, nil
}

// release clears the conversation's turn entry and reports whether the given
// token was still the current one.
func (s *ExchangeService) release(conversationID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.inflight[conversationID]
	if !ok || current != token {
		return false
	}
	delete(s.inflight, conversationID)
	return true
}

func (s *ExchangeService) publish(
	ctx context.Context,
	conversationID, token string,
	outcome model.ExchangeOutcome,
	modelID, detail string,
) {
	if s.events == nil {
		return
	}
	_, err := s.events.Publish(ctx, &model.ExchangeEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TurnToken:      token,
		Outcome:        outcome,
		Model:          modelID,
		Detail:         detail,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish exchange event", zap.Error(err))
	}
}
