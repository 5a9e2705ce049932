// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes calendar lookup tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dunghn/amlich/internal/index"
	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/storage"
)

// Server wraps the MCP server with calendar tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    index.DayIndex
}

// New creates a new MCP server with all calendar tools registered.
func New(store storage.Provider, db index.DayIndex) *Server {
	s := &Server{store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Amlich",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_month",
		mcp.WithDescription("Get the full merged lunar calendar for one month, including summary counts."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Gregorian year, e.g. 2024")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month number 1-12")),
	), s.getMonth)

	s.mcp.AddTool(mcp.NewTool("get_day",
		mcp.WithDescription("Get one merged calendar day by solar date: lunar date, can chi, "+
			"auspicious hours, recommended activities, holidays."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Solar date in YYYY-MM-DD form")),
	), s.getDay)

	s.mcp.AddTool(mcp.NewTool("list_months",
		mcp.WithDescription("List the months that have merged calendar data, as YYYY-MM."),
	), s.listMonths)

	s.mcp.AddTool(mcp.NewTool("good_days",
		mcp.WithDescription("List the auspicious (hoàng đạo) days of one month."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Gregorian year, e.g. 2024")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month number 1-12")),
	), s.goodDays)

	s.mcp.AddTool(mcp.NewTool("bad_days",
		mcp.WithDescription("List the inauspicious (hắc đạo) days of one month."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Gregorian year, e.g. 2024")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month number 1-12")),
	), s.badDays)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func yearMonthArgs(req mcp.CallToolRequest) (int, int, error) {
	year, err := req.RequireInt("year")
	if err != nil {
		return 0, 0, err
	}
	month, err := req.RequireInt("month")
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	return year, month, nil
}

func (s *Server) getMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, month, err := yearMonthArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.ReadMonth(year, month)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no data for %04d-%02d", year, month)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := s.db.GetDay(date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", date)), nil
	}
	out, _ := json.MarshalIndent(day, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMonths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	months, err := s.store.ListMonths()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(months) == 0 {
		return mcp.NewToolResultText("no merged months"), nil
	}
	return mcp.NewToolResultText(strings.Join(months, "\n")), nil
}

func (s *Server) goodDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, month, err := yearMonthArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := s.db.DaysWithVerdict(fmt.Sprintf("%04d-%02d", year, month), true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(days) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no auspicious days recorded for %04d-%02d", year, month)), nil
	}
	return mcp.NewToolResultText(verdictListing(days, true)), nil
}

func (s *Server) badDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, month, err := yearMonthArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := s.db.DaysWithVerdict(fmt.Sprintf("%04d-%02d", year, month), false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(days) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no inauspicious days recorded for %04d-%02d", year, month)), nil
	}
	return mcp.NewToolResultText(verdictListing(days, false)), nil
}

func verdictListing(days []models.DayRecord, good bool) string {
	var b strings.Builder
	for _, d := range days {
		fmt.Fprintf(&b, "%s (%s)", d.SolarDate, d.CanChi.Day)
		activities := d.Activities.BadActivities
		if good {
			activities = d.Activities.GoodActivities
		}
		if len(activities) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(activities, "; "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
