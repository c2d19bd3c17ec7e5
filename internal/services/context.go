package services

import "context"

// scope is the run/file/stage triple carried through a context. It is
// stored as one value so nested With calls copy three strings instead of
// growing the context chain.
type scope struct {
	runID, file, stage string
}

type scopeKey struct{}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, value string, set func(*scope)) context.Context {
	if value == "" {
		return ctx
	}
	s := scopeOf(ctx)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

func present(v string) (string, bool) { return v, v != "" }

// WithRunID annotates ctx with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withScope(ctx, id, func(s *scope) { s.runID = id })
}

// WithFile annotates ctx with the audio file being processed.
func WithFile(ctx context.Context, name string) context.Context {
	return withScope(ctx, name, func(s *scope) { s.file = name })
}

// WithStage annotates ctx with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withScope(ctx, stage, func(s *scope) { s.stage = stage })
}

func RunIDFromContext(ctx context.Context) (string, bool) { return present(scopeOf(ctx).runID) }

func FileFromContext(ctx context.Context) (string, bool) { return present(scopeOf(ctx).file) }

func StageFromContext(ctx context.Context) (string, bool) { return present(scopeOf(ctx).stage) }
