package httpcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/planner/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxRequestIDLen = 64
)

// Client describes the caller of an API request.
type Client struct {
	RemoteAddr string
	UserAgent  string
}

type clientKey struct{}

// ClientFrom returns the caller stored by Attach.
func ClientFrom(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(clientKey{}).(Client)
	return client, ok
}

// Adapter turns a fasthttp request into a context.Context bounded by the
// per-request timeout, so use cases and repositories can honour deadlines.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns the request context. The request id is taken from the
// X-Request-ID header when it is usable and echoed back on the response.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	if ctx == nil {
		return stdCtx, cancel
	}
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	var client Client
	if addr := ctx.RemoteAddr(); addr != nil {
		client.RemoteAddr = addr.String()
	}
	client.UserAgent = string(ctx.Request.Header.UserAgent())
	return context.WithValue(stdCtx, clientKey{}, client), cancel
}

// requestID keeps a caller-supplied id only if it is short printable ASCII,
// so it can be logged as is.
func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	header := ctx.Request.Header.Peek(HeaderRequestID)
	if len(header) == 0 || len(header) > maxRequestIDLen {
		return uuid.NewString()
	}
	for _, c := range header {
		if c <= ' ' || c > '~' {
			return uuid.NewString()
		}
	}
	return string(header)
}
