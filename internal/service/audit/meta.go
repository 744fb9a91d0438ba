package audit

import "context"

// Meta carries requester attribution for audit records
type Meta struct {
	IP        string
	UserAgent string
}

type metaKey struct{}

// WithMeta attaches requester attribution to a context
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext extracts requester attribution, if present
func MetaFromContext(ctx context.Context) Meta {
	if meta, ok := ctx.Value(metaKey{}).(Meta); ok {
		return meta
	}
	return Meta{}
}
