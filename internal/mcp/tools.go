// ABOUTME: MCP tool implementations for the sync engine.
// ABOUTME: Today's metrics, sync control, sync status, and permission checks.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	healthsync "github.com/SG-Repo2/mylera-sub000/internal/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_today_metrics",
		Description: "Get today's health metrics with per-metric scores and the daily total",
	}, s.handleGetTodayMetrics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_now",
		Description: "Trigger a health data synchronization and report the outcome",
	}, s.handleSyncNow)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_sync_status",
		Description: "Get the current sync state, last sync time, and last error",
	}, s.handleGetSyncStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_permissions",
		Description: "Check health data permission state for the configured user",
	}, s.handleCheckPermissions)
}

// Tool input/output types

type todayMetricsInput struct {
	Date string `json:"date,omitempty" jsonschema:"Date (YYYY-MM-DD), defaults to today"`
}

type metricEntry struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Points      int     `json:"points"`
	Goal        float64 `json:"goal"`
	GoalReached bool    `json:"goal_reached"`
}

type todayMetricsOutput struct {
	Date        string                 `json:"date"`
	Metrics     map[string]metricEntry `json:"metrics"`
	DailyScore  int                    `json:"daily_score"`
	WeeklyScore int                    `json:"weekly_score"`
	StreakDays  int                    `json:"streak_days"`
	Message     string                 `json:"message,omitempty"`
}

type syncNowInput struct{}

type syncOutput struct {
	Status     string `json:"status"`
	SyncedAt   string `json:"synced_at,omitempty"`
	DailyScore int    `json:"daily_score,omitempty"`
	StreakDays int    `json:"streak_days,omitempty"`
	Category   string `json:"error_category,omitempty"`
	Message    string `json:"message,omitempty"`
}

type syncStatusInput struct{}

type permissionsInput struct{}

type permissionsOutput struct {
	Status      string   `json:"status"`
	LastChecked string   `json:"last_checked,omitempty"`
	ExpiresAt   string   `json:"expires_at,omitempty"`
	Denied      []string `json:"denied_permissions,omitempty"`
}

// Tool handlers

func (s *Server) handleGetTodayMetrics(ctx context.Context, req *mcp.CallToolRequest, input todayMetricsInput) (*mcp.CallToolResult, todayMetricsOutput, error) {
	date := input.Date
	if date == "" {
		date = s.now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, todayMetricsOutput{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	hm, err := s.store.Metrics(ctx, s.userID, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, todayMetricsOutput{Date: date, Message: "No metrics recorded for this date. Run sync_now first."}, nil
		}
		return nil, todayMetricsOutput{}, fmt.Errorf("load metrics: %w", err)
	}

	scores, err := s.store.DailyScores(ctx, s.userID, date)
	if err != nil {
		return nil, todayMetricsOutput{}, fmt.Errorf("load scores: %w", err)
	}
	byType := make(map[models.MetricType]*models.DailyMetricScore, len(scores))
	for _, sc := range scores {
		byType[sc.MetricType] = sc
	}

	out := todayMetricsOutput{
		Date:        date,
		Metrics:     make(map[string]metricEntry),
		DailyScore:  hm.DailyScore,
		WeeklyScore: hm.WeeklyScore,
		StreakDays:  hm.StreakDays,
	}
	for _, mt := range models.AllMetricTypes {
		v := hm.Value(mt)
		if v == nil {
			continue
		}
		entry := metricEntry{Value: *v, Unit: models.MetricUnits[mt]}
		if sc, ok := byType[mt]; ok {
			entry.Points = sc.Points
			entry.Goal = sc.Goal
			entry.GoalReached = sc.GoalReached
		}
		out.Metrics[string(mt)] = entry
	}
	return nil, out, nil
}

func (s *Server) handleSyncNow(ctx context.Context, req *mcp.CallToolRequest, input syncNowInput) (*mcp.CallToolResult, syncOutput, error) {
	// A failed sync is still a result: the classified message goes back to
	// the client instead of a protocol error.
	_ = s.orch.Sync(ctx)

	st := s.orch.State()
	out := syncOutput{Status: string(st.Status)}
	switch st.Status {
	case healthsync.StatusSuccess:
		out.SyncedAt = st.LastSyncTime.Format(time.RFC3339)
		out.DailyScore = st.DailyScore
		out.StreakDays = st.StreakDays
		out.Message = "Sync complete."
	default:
		out.Category = string(st.Category)
		out.Message = st.LastError
	}
	return nil, out, nil
}

func (s *Server) handleGetSyncStatus(ctx context.Context, req *mcp.CallToolRequest, input syncStatusInput) (*mcp.CallToolResult, syncOutput, error) {
	st := s.orch.State()
	out := syncOutput{
		Status:     string(st.Status),
		Category:   string(st.Category),
		Message:    st.LastError,
		DailyScore: st.DailyScore,
		StreakDays: st.StreakDays,
	}
	if !st.LastSyncTime.IsZero() {
		out.SyncedAt = st.LastSyncTime.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleCheckPermissions(ctx context.Context, req *mcp.CallToolRequest, input permissionsInput) (*mcp.CallToolResult, permissionsOutput, error) {
	if err := s.provider.InitializePermissions(ctx, s.userID); err != nil {
		return nil, permissionsOutput{}, fmt.Errorf("initialize permissions: %w", err)
	}

	state, err := s.provider.PermissionManager().Status(ctx)
	if err != nil {
		return nil, permissionsOutput{}, fmt.Errorf("check permissions: %w", err)
	}

	out := permissionsOutput{
		Status: string(state.Status),
		Denied: state.DeniedPermissions,
	}
	if !state.LastChecked.IsZero() {
		out.LastChecked = state.LastChecked.Format(time.RFC3339)
		out.ExpiresAt = state.LastChecked.Add(models.PermissionTTL).Format(time.RFC3339)
	}
	return nil, out, nil
}
