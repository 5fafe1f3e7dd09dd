// Package selfservice dispatches self-service requests to lazily constructed,
// realm-scoped request handlers.
//
// The Dispatcher owns the only shared mutable state in this module: a realm to
// handler cache. Handlers are built on first use from the realm's console
// configuration and discarded when that realm's configuration changes, so the next
// request rebuilds from fresh state. Construction and eviction serialize on one
// lock; reads of existing entries are lock-free.
package selfservice
