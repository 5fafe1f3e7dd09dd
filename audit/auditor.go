package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LegacyAuthenticationAuditor maps legacy authentication log calls onto the
// structured audit event model, publishing to the matching topic.
type LegacyAuthenticationAuditor struct {
	authentication EventPublisher
	activity       EventPublisher
	logger         *slog.Logger
}

// NewLegacyAuthenticationAuditor wires the translator to its topic publishers.
func NewLegacyAuthenticationAuditor(authentication, activity EventPublisher, logger *slog.Logger) *LegacyAuthenticationAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyAuthenticationAuditor{
		authentication: authentication,
		activity:       activity,
		logger:         logger,
	}
}

// Audit translates a legacy event and forwards it. It returns true when the event
// was handled and false when it could not be: a false return covers both invalid
// input and a failed publish, never an error.
//
// A true return does not guarantee the event was recorded anywhere — only that no
// error occurred attempting it. Use IsAuditing to find out whether a topic is live.
func (a *LegacyAuthenticationAuditor) Audit(ctx context.Context, eventName, eventDescription, transactionID, authentication, realm string, at time.Time, contexts map[string]string, entries []any) bool {
	if transactionID == "" {
		a.logger.Error("audit event dropped: transaction id is required", "event", eventName)
		return false
	}
	if authentication == "" {
		a.logger.Error("audit event dropped: authentication is required", "event", eventName)
		return false
	}

	event := Event{
		ID:             uuid.NewString(),
		Name:           eventDescription,
		TransactionID:  transactionID,
		Authentication: authentication,
		Realm:          realm,
		Component:      ComponentAuthentication,
		Timestamp:      at,
	}
	if len(contexts) > 0 {
		event.Contexts = contexts
	}

	// Exactly one legacy event name classifies as activity; every other name is an
	// authentication event. Activity events carry no entry data.
	if eventName == EventChangePasswordSucceeded {
		return a.publish(ctx, a.activity, ActivityTopic, event)
	}
	if len(entries) > 0 {
		event.Entries = entries
	}
	return a.publish(ctx, a.authentication, AuthenticationTopic, event)
}

func (a *LegacyAuthenticationAuditor) publish(ctx context.Context, publisher EventPublisher, topic string, event Event) bool {
	if err := publisher.Publish(ctx, event); err != nil {
		a.logger.Warn("unable to publish audit event", "topic", topic, "event", event.Name, "error", err)
		return false
	}
	return true
}

// IsLogoutEvent reports whether the legacy message indicates a logout occurred.
func (a *LegacyAuthenticationAuditor) IsLogoutEvent(message string) bool {
	_, ok := logoutEventNames[message]
	return ok
}

// IsAuditing reports whether this auditor records events for the realm and topic.
// Legacy events fan out over two topics, so callers ask per topic.
func (a *LegacyAuthenticationAuditor) IsAuditing(realm, topic string) bool {
	switch topic {
	case AuthenticationTopic:
		return a.authentication.IsAuditing(realm, topic)
	case ActivityTopic:
		return a.activity.IsAuditing(realm, topic)
	default:
		return false
	}
}

// IsAuditingRealm reports whether at least one topic is being audited for realm.
func (a *LegacyAuthenticationAuditor) IsAuditingRealm(realm string) bool {
	return a.authentication.IsAuditing(realm, AuthenticationTopic) ||
		a.activity.IsAuditing(realm, ActivityTopic)
}
