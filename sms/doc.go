// Package sms exposes hierarchical service configuration (the SMS schema) as a
// collection-style resource provider.
//
// The configuration tree itself stays behind the ConfigManager contract: an opaque
// store of named config instances, scoped globally or per organization realm, with
// optional nested sub-configuration identified by a schema path. CollectionProvider
// maps create/read/update/delete/query requests onto that contract with JSON
// attribute conversion at the boundary. Queries support only the unfiltered "true"
// predicate and reject paging.
package sms
