package session

import "context"

type ctxKey int

const (
	sessionKey ctxKey = iota
	startErrKey
)

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// WithStartError records that loading contacts failed when this request
// started the session.
func WithStartError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, startErrKey, err)
}

func StartError(ctx context.Context) error {
	err, _ := ctx.Value(startErrKey).(error)
	return err
}
