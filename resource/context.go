package resource

import "context"

// RootRealm is the realm every request belongs to unless scoped otherwise.
const RootRealm = "/"

type realmContextKey struct{}

// ContextWithRealm returns a context scoped to the given realm path.
func ContextWithRealm(ctx context.Context, realm string) context.Context {
	return context.WithValue(ctx, realmContextKey{}, realm)
}

// RealmFromContext extracts the realm a request is scoped to. Requests that carry
// no realm resolve to the root realm.
func RealmFromContext(ctx context.Context) string {
	if realm, ok := ctx.Value(realmContextKey{}).(string); ok && realm != "" {
		return realm
	}
	return RootRealm
}
