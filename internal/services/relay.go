// Package services implements business logic that coordinates repositories and
// external systems. The chat relay orchestrates the per-request sequence:
// validate input → call the completion provider → persist the exchange →
// return the reply. Each step short-circuits; later steps never run after an
// earlier failure.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/psych-platform/chatbot-backend/internal/db/repositories"
	"github.com/psych-platform/chatbot-backend/internal/telemetry"
)

var (
	// ErrEmptyMessage rejects blank chat input before any provider work.
	ErrEmptyMessage = errors.New("message is required")

	// ErrUnknownUser means the caller's username has no identity row. The
	// exchange log never records names the Credential Store cannot vouch for.
	ErrUnknownUser = errors.New("unknown username")

	// ErrStorageFailure means the provider answered but the exchange could
	// not be recorded. The call fails loudly: the audit trail must never
	// silently diverge from what was sent externally.
	ErrStorageFailure = errors.New("failed to record chat exchange")
)

// Completer is the black-box completion provider: one request, one reply.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// RelayService forwards user messages to the completion provider and persists
// every exchange as an audit record.
type RelayService struct {
	completer Completer
	users     *repositories.UserRepository
	exchanges *repositories.ChatRepository
}

// NewRelayService creates a RelayService
func NewRelayService(completer Completer, users *repositories.UserRepository, exchanges *repositories.ChatRepository) *RelayService {
	return &RelayService{
		completer: completer,
		users:     users,
		exchanges: exchanges,
	}
}

// Converse relays one message for the named caller and returns the completion
// text. The provider is invoked exactly once; there is no retry. Persistence
// happens before the reply is returned, and a persistence failure fails the
// whole call even though the provider already answered.
func (s *RelayService) Converse(ctx context.Context, username, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	// The username is denormalized onto the exchange row, so verify it
	// against the Credential Store rather than trusting it verbatim.
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to verify caller identity: %w", err)
	}
	if user == nil {
		return "", ErrUnknownUser
	}

	reply, err := s.completer.Complete(ctx, message)
	if err != nil {
		slog.Error("completion provider call failed", "username", username, "error", err)
		return "", err
	}

	exchange, err := s.exchanges.Create(ctx, username, reply)
	if err != nil {
		slog.Error("failed to persist chat exchange", "username", username, "error", err)
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	telemetry.ChatExchangesTotal.Inc()
	slog.Info("chat exchange recorded", "exchange_id", exchange.ID, "username", username)

	return reply, nil
}
