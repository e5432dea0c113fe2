// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/profitelligence/mcp-server/pkg/api"
	"github.com/profitelligence/mcp-server/pkg/auth"
	"github.com/profitelligence/mcp-server/pkg/config"
)

// toolHandler serves the research tools. Each tool maps 1:1 to a
// /v1/mcp-* endpoint on the data API and passes the response body
// through untouched.
type toolHandler struct {
	cfg *config.Config
}

func (h *toolHandler) register(s *server.MCPServer) {
	s.AddTool(mcp.Tool{
		Name:        "pulse",
		Description: "Market snapshot - movers, recent material filings, notable insider trades, and key economic indicators. No parameters needed.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, h.pulse)

	s.AddTool(mcp.Tool{
		Name:        "investigate",
		Description: "Deep research on a company, insider, or sector. Auto-detects entity type: stock symbols (AAPL) are companies, CIK numbers (0001067983) are insiders, sector names (Technology) are sectors.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"subject": map[string]interface{}{
					"type":        "string",
					"description": "What to research (symbol, CIK, or sector name)",
				},
				"entity_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"company", "insider", "sector"},
					"description": "Force entity type if auto-detection fails",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Lookback period in days (default 30)",
				},
			},
			Required: []string{"subject"},
		},
	}, h.investigate)

	s.AddTool(mcp.Tool{
		Name:        "screen",
		Description: "Scan the market for opportunities across all stocks.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"focus": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"all", "multi_signal", "insider", "events"},
					"description": "What to scan for (default \"all\")",
				},
				"sector": map[string]interface{}{
					"type":        "string",
					"description": "Filter by sector (e.g. \"Technology\")",
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum opportunity score 0-100",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Lookback period in days (default 7)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Max results per category (default 25)",
				},
			},
		},
	}, h.screen)

	s.AddTool(mcp.Tool{
		Name:        "assess",
		Description: "Position health check for an existing holding: price action, material events, insider and institutional sentiment, financials, technical indicators.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Stock symbol to assess",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Lookback period in days (default 30)",
				},
			},
			Required: []string{"symbol"},
		},
	}, h.assess)

	s.AddTool(mcp.Tool{
		Name:        "institutional",
		Description: "Institutional investor intelligence from 13F filings: profile a manager, map ownership of a security, or find institutional flow signals.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"manager", "security", "signal"},
					"description": "Type of query",
				},
				"identifier": map[string]interface{}{
					"type":        "string",
					"description": "Symbol or manager name/CIK (required for manager/security queries)",
				},
				"signal_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"accumulation", "distribution", "conviction", "new"},
					"description": "For signal queries, what pattern to find",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Max results (default 25)",
				},
			},
			Required: []string{"query_type"},
		},
	}, h.institutional)

	s.AddTool(mcp.Tool{
		Name:        "search",
		Description: "Semantic search across SEC filings, companies, insiders, and institutional managers.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"q": map[string]interface{}{
					"type":        "string",
					"description": "Search query (minimum 2 characters)",
				},
				"entity_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"filing", "company", "insider", "manager"},
					"description": "Filter results by type",
				},
				"sector": map[string]interface{}{
					"type":        "string",
					"description": "Filter by sector",
				},
				"impact": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"HIGH", "MEDIUM", "LOW"},
					"description": "Filter filings by impact level",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Max results (default 20, max 100)",
				},
			},
			Required: []string{"q"},
		},
	}, h.search)
}

// clientFor builds a data API client for the credential attached to
// the request context.
func (h *toolHandler) clientFor(ctx context.Context) (*api.Client, error) {
	cred, ok := auth.CredentialFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no credential in request context")
	}
	return api.NewClient(h.cfg.APIBaseURL, cred)
}

// fetch runs a GET against the data API and wraps the outcome as a
// tool result. API failures come back as tool errors, not protocol
// errors, so the model can see what went wrong.
func (h *toolHandler) fetch(ctx context.Context, path string, params url.Values) (*mcp.CallToolResult, error) {
	client, err := h.clientFor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := client.Get(ctx, path, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (h *toolHandler) pulse(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.fetch(ctx, "/v1/mcp-pulse", nil)
}

func (h *toolHandler) investigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Subject    string `json:"subject"`
		EntityType string `json:"entity_type,omitempty"`
		Days       int    `json:"days,omitempty"`
	}{Days: 30}

	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.Subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}

	params := url.Values{
		"subject": {args.Subject},
		"days":    {strconv.Itoa(args.Days)},
	}
	if args.EntityType != "" {
		params.Set("type", args.EntityType)
	}
	return h.fetch(ctx, "/v1/mcp-investigate", params)
}

func (h *toolHandler) screen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Focus    string   `json:"focus,omitempty"`
		Sector   string   `json:"sector,omitempty"`
		MinScore *float64 `json:"min_score,omitempty"`
		Days     int      `json:"days,omitempty"`
		Limit    int      `json:"limit,omitempty"`
	}{Focus: "all", Days: 7, Limit: 25}

	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	params := url.Values{
		"focus": {args.Focus},
		"days":  {strconv.Itoa(args.Days)},
		"limit": {strconv.Itoa(args.Limit)},
	}
	if args.Sector != "" {
		params.Set("sector", args.Sector)
	}
	if args.MinScore != nil {
		params.Set("min_score", strconv.FormatFloat(*args.MinScore, 'f', -1, 64))
	}
	return h.fetch(ctx, "/v1/mcp-screen", params)
}

func (h *toolHandler) assess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Symbol string `json:"symbol"`
		Days   int    `json:"days,omitempty"`
	}{Days: 30}

	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.Symbol == "" {
		return mcp.NewToolResultError("symbol is required"), nil
	}

	params := url.Values{
		"symbol": {args.Symbol},
		"days":   {strconv.Itoa(args.Days)},
	}
	return h.fetch(ctx, "/v1/mcp-assess", params)
}

func (h *toolHandler) institutional(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		QueryType  string `json:"query_type"`
		Identifier string `json:"identifier,omitempty"`
		SignalType string `json:"signal_type,omitempty"`
		Limit      int    `json:"limit,omitempty"`
	}{Limit: 25}

	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.QueryType == "" {
		return mcp.NewToolResultError("query_type is required"), nil
	}

	params := url.Values{
		"query_type": {args.QueryType},
		"limit":      {strconv.Itoa(args.Limit)},
	}
	if args.Identifier != "" {
		params.Set("identifier", args.Identifier)
	}
	if args.SignalType != "" {
		params.Set("signal_type", args.SignalType)
	}
	return h.fetch(ctx, "/v1/mcp-institutional", params)
}

func (h *toolHandler) search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Q          string `json:"q"`
		EntityType string `json:"entity_type,omitempty"`
		Sector     string `json:"sector,omitempty"`
		Impact     string `json:"impact,omitempty"`
		Limit      int    `json:"limit,omitempty"`
	}{Limit: 20}

	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if len(args.Q) < 2 {
		return mcp.NewToolResultError("q must be at least 2 characters"), nil
	}

	params := url.Values{
		"q":     {args.Q},
		"limit": {strconv.Itoa(args.Limit)},
	}
	if args.EntityType != "" {
		params.Set("entity_type", args.EntityType)
	}
	if args.Sector != "" {
		params.Set("sector", args.Sector)
	}
	if args.Impact != "" {
		params.Set("impact", args.Impact)
	}
	return h.fetch(ctx, "/v1/search", params)
}
