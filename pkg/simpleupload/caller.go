package simpleupload

import "context"

type callerKey struct{}

// WithCaller attaches the identity of the party requesting an upload. It is
// exposed to strategies as UploadContext.Caller and recorded on events.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the identity set by WithCaller, or ""
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}
