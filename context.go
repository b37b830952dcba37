package jwtgate

import "context"

type entityContextKey struct{ tag string }
type accessTokenContextKey struct{}
type resolvedTagContextKey struct{}

// WithEntity attaches a resolved entity to ctx under its type tag. The
// middleware calls this for authorized requests; handlers normally only read
// via [EntityFromContext].
func WithEntity(ctx context.Context, typeTag string, entity any) context.Context {
	ctx = context.WithValue(ctx, entityContextKey{tag: typeTag}, entity)
	return context.WithValue(ctx, resolvedTagContextKey{}, typeTag)
}

// EntityFromContext returns the entity resolved for this request under
// typeTag, if any. Entities are request-scoped: they are attached to the
// request's own context and vanish with it, so nothing survives into later
// requests.
func EntityFromContext(ctx context.Context, typeTag string) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	entity := ctx.Value(entityContextKey{tag: typeTag})
	return entity, entity != nil
}

// WithAccessToken stashes the raw strategy bearer value for downstream use.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenContextKey{}, token)
}

// AccessTokenFromContext returns the raw provider access token for requests
// authorized through an [AuthStrategy]. Empty for signed-token requests.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, _ := ctx.Value(accessTokenContextKey{}).(string)
	return token, token != ""
}

// resolvedTagFromContext returns the type tag of the entity resolved for this
// request. Token renewal reads it so callers never repeat the tag.
func resolvedTagFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tag, _ := ctx.Value(resolvedTagContextKey{}).(string)
	return tag, tag != ""
}
