package audit

import (
	"context"
	"time"
)

// Audit topics this translator can forward to.
const (
	AuthenticationTopic = "authentication"
	ActivityTopic       = "activity"
)

// ComponentAuthentication tags events originating from the authentication
// component, the only component legacy log calls come from.
const ComponentAuthentication = "authentication"

// EventChangePasswordSucceeded is the sole legacy event name classified as an
// activity event. The names are drawn from the legacy authentication message IDs.
const EventChangePasswordSucceeded = "CHANGE_USER_PASSWORD_SUCCEEDED"

// logoutEventNames are the legacy messages indicating a logout occurred.
var logoutEventNames = map[string]struct{}{
	"LOGOUT":                 {},
	"LOGOUT_USER":            {},
	"LOGOUT_ROLE":            {},
	"LOGOUT_SERVICE":         {},
	"LOGOUT_LEVEL":           {},
	"LOGOUT_MODULE_INSTANCE": {},
}

// Event is a structured audit event.
type Event struct {
	// ID uniquely identifies the event.
	ID string
	// Name is the human-oriented event name, taken from the legacy description.
	Name string
	// TransactionID correlates the event with the request that produced it.
	TransactionID string
	// Authentication identifies the acting principal.
	Authentication string
	// Realm the event occurred in. May be empty.
	Realm string
	// Component that emitted the event.
	Component string
	// Timestamp the event occurred at.
	Timestamp time.Time
	// Contexts carries free-form correlation data.
	Contexts map[string]string
	// Entries carries extra per-event information. Activity events never have any.
	Entries []any
}

// EventPublisher delivers events for one audit topic. The transport behind it is
// out of scope here.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	// IsAuditing reports whether events for the realm and topic are being recorded.
	IsAuditing(realm, topic string) bool
}
