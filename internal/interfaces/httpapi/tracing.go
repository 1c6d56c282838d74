package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const principalContextKey contextKey = "auth_principal"

var (
	apiTracer = otel.Tracer("valorant-fantasy/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("enduser.id", p.UserID),
		attribute.Bool("enduser.admin", p.IsAdmin),
	)
	return context.WithValue(ctx, principalContextKey, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(user.Principal)
	return p, ok
}

// RequestTracing opens the server span, named from the raw path until
// nameRouteSpan renames it.
func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "valorant-fantasy-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

// nameRouteSpan renames the server span to the matched route pattern so
// /v1/players/{playerID} stays one series regardless of the id.
func nameRouteSpan(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			trace.SpanFromContext(r.Context()).SetName(routeSpanName(r.Method, pattern))
		}
		mux.ServeHTTP(w, r)
	})
}

func routeSpanName(method, pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if strings.Contains(pattern, " ") {
		return pattern
	}
	return method + " " + pattern
}

func shouldTraceRequest(path string) bool {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "/healthz", "/health", "/livez", "/readyz", "/openapi.yaml", "/docs":
		return false
	default:
		return true
	}
}

// startSpan opens a child span for handler work. Without a parent, e.g. on
// filtered routes, it returns a no-op span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	if !strings.HasPrefix(name, "httpapi.Handler.") {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}
