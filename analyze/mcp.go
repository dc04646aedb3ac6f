package analyze

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/textlens/kit"
)

// RegisterMCP registers analysis tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerAnalyzeTool(srv)
	p.registerStagesTool(srv)
}

func (p *Pipeline) withMCPLogging(name string) kit.Middleware {
	return kit.Chain(kit.Logged(p.logger, name))
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- analyze ---

type analyzeReq struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Stages   *Stages           `json:"stages,omitempty"`
}

type analyzeResp struct {
	Analysis   Record `json:"analysis"`
	TextLength int    `json:"text_length"`
}

func (p *Pipeline) registerAnalyzeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "textlens_analyze",
		Description: "Analyze plain text: extract entities, identify language, classify document type and build a semantic profile.",
		InputSchema: inputSchema(map[string]any{
			"text":     map[string]any{"type": "string", "description": "Plain text to analyze"},
			"metadata": map[string]any{"type": "object", "description": "Optional document metadata (title, author) used as classification hints"},
			"stages":   map[string]any{"type": "object", "description": "Optional stage selection; defaults to all stages"},
		}, []string{"text"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*analyzeReq)
		stages := AllStages()
		if r.Stages != nil {
			stages = *r.Stages
		}
		rec := p.Analyze(ctx, r.Text, r.Metadata, stages)
		return analyzeResp{
			Analysis:   rec,
			TextLength: utf8.RuneCountInString(r.Text),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r analyzeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, p.withMCPLogging(tool.Name)(endpoint), decode)
}

// --- stages ---

func (p *Pipeline) registerStagesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "textlens_stages",
		Description: "List the pipeline stages, their minimum-length floors and the enabled capabilities.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{
			"stages": []map[string]any{
				{"name": "normalize", "min_length": 0},
				{"name": "entities", "min_length": p.cfg.MinEntitiesLength},
				{"name": "language", "min_length": p.cfg.MinLanguageLength},
				{"name": "classification", "min_length": p.cfg.MinClassifyLength},
				{"name": "semantic", "min_length": p.cfg.MinSemanticLength},
			},
			"capabilities": p.cfg.Capabilities,
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, p.withMCPLogging(tool.Name)(endpoint), decode)
}
