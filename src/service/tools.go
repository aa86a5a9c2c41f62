package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/input"
	"github.com/Easy-Infra-Ltd/easy-input-guard/src/sanitizer"
)

// ErrInputTooLarge is reported when a tool call's arguments exceed the
// configured byte limit.
var ErrInputTooLarge = errors.New("tool arguments exceed size limit")

type sanitizeArgs struct {
	Input any `json:"input" jsonschema:"JSON value whose strings are sanitized; objects and arrays are walked recursively"`
}

type explainArgs struct {
	Text string `json:"text" jsonschema:"text to sanitize"`
}

type decodeEntitiesArgs struct {
	Text    string `json:"text" jsonschema:"text containing HTML character references"`
	Charset string `json:"charset,omitempty" jsonschema:"character set of text, default utf-8"`
}

type stripInvisiblesArgs struct {
	Text             string `json:"text" jsonschema:"text to strip of control characters"`
	DecodeURLEncoded bool   `json:"decodeUrlEncoded,omitempty" jsonschema:"also remove percent-encoded control characters"`
}

type sanitizeQueryArgs struct {
	Query   string   `json:"query" jsonschema:"URL query string, with or without the leading ?"`
	Exclude []string `json:"exclude,omitempty" jsonschema:"field names to leave untouched"`
}

type convertArgs struct {
	Value string `json:"value" jsonschema:"raw input value"`
	Kind  string `json:"kind" jsonschema:"target kind: string, int, float, bool, email or ip"`
}

type explainOutput struct {
	Verdict       string   `json:"verdict"`
	Content       string   `json:"content"`
	Modified      []string `json:"modified"`
	TablesVersion string   `json:"tablesVersion"`
}

// Tools exposes the sanitizer as MCP tools.
type Tools struct {
	san           *sanitizer.Sanitizer
	guard         *input.Guard
	maxInputBytes int
	logger        *slog.Logger
}

// NewTools creates the tool set. Arguments longer than maxInputBytes are
// refused; zero disables the limit.
func NewTools(san *sanitizer.Sanitizer, guard *input.Guard, maxInputBytes int, logger *slog.Logger) *Tools {
	return &Tools{
		san:           san,
		guard:         guard,
		maxInputBytes: maxInputBytes,
		logger:        logger.With("area", "tools"),
	}
}

type toolDef struct {
	name        string
	description string
	schema      func() (*jsonschema.Schema, error)
	handler     mcp.ToolHandler
}

// Register adds every tool to srv.
func (t *Tools) Register(srv *mcp.Server) error {
	defs := []toolDef{
		{
			name:        "sanitize",
			description: "Neutralize XSS vectors in every string of a JSON value.",
			schema:      schemaFor[sanitizeArgs],
			handler:     t.sanitize,
		},
		{
			name:        "explain",
			description: "Sanitize a string and report which stages rewrote it.",
			schema:      schemaFor[explainArgs],
			handler:     t.explain,
		},
		{
			name:        "decode_entities",
			description: "Decode HTML character references, tolerating missing semicolons.",
			schema:      schemaFor[decodeEntitiesArgs],
			handler:     t.decodeEntities,
		},
		{
			name:        "strip_invisibles",
			description: "Remove non-printable control characters.",
			schema:      schemaFor[stripInvisiblesArgs],
			handler:     t.stripInvisibles,
		},
		{
			name:        "sanitize_query",
			description: "Sanitize every value of a URL query string and return it re-encoded.",
			schema:      schemaFor[sanitizeQueryArgs],
			handler:     t.sanitizeQuery,
		},
		{
			name:        "convert",
			description: "Validate a raw value and convert it to a scalar kind.",
			schema:      schemaFor[convertArgs],
			handler:     t.convert,
		},
	}

	for _, d := range defs {
		schema, err := d.schema()
		if err != nil {
			return fmt.Errorf("schema for %s: %w", d.name, err)
		}
		srv.AddTool(&mcp.Tool{
			Name:        d.name,
			Description: d.description,
			InputSchema: schema,
		}, t.logged(d.name, d.handler))
	}
	return nil
}

func schemaFor[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

// logged tags each call with an ID and records its outcome.
func (t *Tools) logged(name string, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		t.logger.Debug("tool call", "tool", name, "call_id", callID, "arg_bytes", len(req.Params.Arguments))

		result, err := h(ctx, req)
		switch {
		case err != nil:
			t.logger.Error("tool call failed", "tool", name, "call_id", callID, "error", err)
		case result.IsError:
			t.logger.Warn("tool call rejected", "tool", name, "call_id", callID)
		}
		return result, err
	}
}

func (t *Tools) sanitize(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sanitizeArgs
	if err := t.decode(req, &args); err != nil {
		return toolError(err), nil
	}
	return jsonResult(t.san.SanitizeValue(args.Input))
}

func (t *Tools) explain(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args explainArgs
	if err := t.decode(req, &args); err != nil {
		return toolError(err), nil
	}

	res := t.san.Explain(args.Text)
	modified := res.Modified()
	if modified == nil {
		modified = []string{}
	}
	return jsonResult(explainOutput{
		Verdict:       res.FinalVerdict.String(),
		Content:       res.FinalContent,
		Modified:      modified,
		TablesVersion: t.san.Version(),
	})
}

func (t *Tools) decodeEntities(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args decodeEntitiesArgs
	if err := t.decode(req, &args); err != nil {
		return toolError(err), nil
	}
	return textResult(sanitizer.DecodeEntities(args.Text, args.Charset)), nil
}

func (t *Tools) stripInvisibles(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args stripInvisiblesArgs
	if err := t.decode(req, &args); err != nil {
		return toolError(err), nil
	}
	return textResult(sanitizer.StripInvisibles(args.Text, args.DecodeURLEncoded)), nil
}

func (t *Tools) sanitizeQuery(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sanitizeQueryArgs
	if err := t.decode(req, &args); err != nil {
		return toolError(err), nil
	}

	out, err := t.guard.Excluding(args.Exclude...).CleanQuery(args.Query)
	if err != nil {
		return toolError(err), nil
	}
	return textResult(out), nil
}

func (t *Tools) convert(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args convertArgs
	if err := t.decode(req, &args); err != nil {
		return toolError(err), nil
	}

	v, err := input.Convert(t.san, args.Value, args.Kind)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(v)
}

func (t *Tools) decode(req *mcp.CallToolRequest, dst any) error {
	raw := req.Params.Arguments
	if t.maxInputBytes > 0 && len(raw) > t.maxInputBytes {
		return fmt.Errorf("%d bytes: %w", len(raw), ErrInputTooLarge)
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return nil
}

func textResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s}},
	}
}

// jsonResult renders v as JSON text. HTML escaping is off so sanitized
// output reads the same as it would in the page.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(bytes.TrimRight(buf.Bytes(), "\n"))), nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
