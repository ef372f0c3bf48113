// ABOUTME: MCP resource implementations for the sync engine.
// ABOUTME: Provides mylera://today, mylera://scores, and mylera://sync resources.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// mylera://today - today's reconciled metric values
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "mylera://today",
		Name:        "Today's Health Metrics",
		Description: "Reconciled metric values for today with daily score and streak",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	// mylera://scores - today's per-metric score rows
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "mylera://scores",
		Name:        "Today's Metric Scores",
		Description: "Per-metric points, goals, and goal-reached flags for today",
		MIMEType:    "application/json",
	}, s.handleScoresResource)

	// mylera://sync - current sync engine state
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "mylera://sync",
		Name:        "Sync Status",
		Description: "Current sync state, last sync time, and last error",
		MIMEType:    "application/json",
	}, s.handleSyncResource)
}

// Resource handlers

func (s *Server) resourceResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	date := s.now().Format("2006-01-02")

	hm, err := s.store.Metrics(ctx, s.userID, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.resourceResult("mylera://today", map[string]any{
				"date":    date,
				"message": "no metrics recorded for today",
			})
		}
		return nil, fmt.Errorf("load metrics: %w", err)
	}

	values := make(map[string]float64)
	for _, mt := range models.AllMetricTypes {
		if v := hm.Value(mt); v != nil {
			values[string(mt)] = *v
		}
	}

	return s.resourceResult("mylera://today", map[string]any{
		"date":         date,
		"values":       values,
		"daily_score":  hm.DailyScore,
		"weekly_score": hm.WeeklyScore,
		"streak_days":  hm.StreakDays,
	})
}

func (s *Server) handleScoresResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	date := s.now().Format("2006-01-02")

	scores, err := s.store.DailyScores(ctx, s.userID, date)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	rows := make([]map[string]any, 0, len(scores))
	for _, sc := range scores {
		rows = append(rows, map[string]any{
			"metric_type":  string(sc.MetricType),
			"value":        sc.Value,
			"points":       sc.Points,
			"goal":         sc.Goal,
			"goal_reached": sc.GoalReached,
			"updated_at":   sc.UpdatedAt.Format(time.RFC3339),
		})
	}

	return s.resourceResult("mylera://scores", map[string]any{
		"date":   date,
		"scores": rows,
	})
}

func (s *Server) handleSyncResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	st := s.orch.State()

	result := map[string]any{
		"status": string(st.Status),
	}
	if !st.LastSyncTime.IsZero() {
		result["last_sync_time"] = st.LastSyncTime.Format(time.RFC3339)
	}
	if st.LastError != "" {
		result["last_error"] = st.LastError
		result["category"] = string(st.Category)
	}
	return s.resourceResult("mylera://sync", result)
}
