// Package audit translates legacy authentication log calls into structured audit
// events and forwards them to topic publishers.
//
// The translator is pure classification and forwarding: one hardcoded legacy event
// name maps to the activity topic, everything else is an authentication event. The
// publishing pipeline behind EventPublisher is a black box; a publish failure is
// reported as a false return, never propagated.
package audit
