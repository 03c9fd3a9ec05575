package ctxutil

import "context"

type requestDataKey struct{}

// RequestData identifies the caller of one HTTP request. UserID is whatever
// the client supplied and may be empty.
type RequestData struct {
	UserID   string
	ClientIP string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
