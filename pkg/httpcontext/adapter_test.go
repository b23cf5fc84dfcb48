package httpcontext

import (
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/planner/pkg/logger"
)

func TestAttachPropagatesRequestID(t *testing.T) {
	var req fasthttp.RequestCtx
	req.Request.Header.Set(HeaderRequestID, "req-42")
	req.Request.Header.SetUserAgent("planner-web/1.0")

	ctx, cancel := NewAdapter(time.Second).Attach(&req)
	defer cancel()

	if got := appLogger.RequestID(ctx); got != "req-42" {
		t.Fatalf("expected caller request id, got %q", got)
	}
	if got := string(req.Response.Header.Peek(HeaderRequestID)); got != "req-42" {
		t.Fatalf("request id not echoed, got %q", got)
	}
	client, ok := ClientFrom(ctx)
	if !ok || client.UserAgent != "planner-web/1.0" {
		t.Fatalf("unexpected client %#v", client)
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatalf("expected a request deadline")
	}
}

func TestAttachReplacesUnusableRequestID(t *testing.T) {
	for _, header := range []string{"", "two words", strings.Repeat("x", 65)} {
		var req fasthttp.RequestCtx
		if header != "" {
			req.Request.Header.Set(HeaderRequestID, header)
		}

		ctx, cancel := NewAdapter(0).Attach(&req)
		got := appLogger.RequestID(ctx)
		cancel()

		if got == "" || got == header {
			t.Fatalf("header %q: expected a generated id, got %q", header, got)
		}
	}
}
