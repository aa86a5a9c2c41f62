package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewUpstream_createsServer(t *testing.T) {
	u := NewUpstream(config.ServerConfig{Transport: config.TransportStdio}, testLogger())
	if u.Server == nil {
		t.Fatal("expected non-nil server")
	}
}

func TestUpstream_runUnsupported(t *testing.T) {
	u := NewUpstream(config.ServerConfig{Transport: "grpc"}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := u.Run(ctx); err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

func TestUpstream_toolRegistration(t *testing.T) {
	u := NewUpstream(config.ServerConfig{Transport: config.TransportStdio}, testLogger())

	u.Server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "returns a fixed reply",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "response"}},
		}, nil
	})

	srvTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = u.Server.Run(ctx, srvTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	var names []string
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			t.Fatalf("listing tools: %v", err)
		}
		names = append(names, tool.Name)
	}
	if !slices.Equal(names, []string{"echo"}) {
		t.Fatalf("tools = %v, want [echo]", names)
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Content))
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected *TextContent, got %T", result.Content[0])
	}
	if tc.Text != "response" {
		t.Errorf("text = %q, want %q", tc.Text, "response")
	}
}

func TestUpstream_handlerMiddleware(t *testing.T) {
	var order []string
	record := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	reject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "reject")
			w.WriteHeader(http.StatusTeapot)
		})
	}

	cfg := config.ServerConfig{
		Transport: config.TransportHTTP,
		HTTP:      config.HTTPConfig{Addr: "127.0.0.1:0", Path: "/mcp"},
	}
	h := NewUpstream(cfg, testLogger(), record("outer"), record("inner"), reject).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if want := []string{"outer", "inner", "reject"}; !slices.Equal(order, want) {
		t.Errorf("middleware order = %v, want %v", order, want)
	}

	order = nil
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unmounted path status = %d, want 404", rec.Code)
	}
	if len(order) != 0 {
		t.Errorf("middleware ran for unmounted path: %v", order)
	}
}
