// Package resource models the realm-scoped request/response surface shared by the
// console services in this module.
//
// It deliberately stops short of any transport concern: requests and responses are
// plain value types, handlers are plain interfaces, and the realm a request is scoped
// to travels on the context. Error classification uses gravitational/trace so that
// callers can distinguish NotFound, BadParameter (bad request), NotImplemented
// (operation or service not supported) and wrapped internal failures without this
// package defining its own error hierarchy.
package resource
