// ABOUTME: File-backed health provider adapter reading a JSON sample export.
// ABOUTME: Stands in for platform SDK bindings in the CLI and in tests.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/permissions"
	"github.com/SG-Repo2/mylera-sub000/internal/provider"
	"github.com/charmbracelet/log"
)

// Platform is the platform name this adapter registers under.
const Platform = "local"

// sampleFile is the on-disk shape of a sample export.
type sampleFile struct {
	Samples []models.RawSample `json:"samples"`
}

// Provider reads raw samples from a JSON export file. It satisfies the full
// HealthProvider contract so the engine above it cannot tell it from a
// native platform adapter.
type Provider struct {
	provider.Base

	samplePath string

	mu      sync.Mutex
	samples []models.RawSample
	now     func() time.Time
}

// New creates a local provider reading samples from the given file.
func New(samplePath string, perms *permissions.Store, logger *log.Logger) *Provider {
	return &Provider{
		Base:       provider.NewBase(Platform, perms, logger),
		samplePath: samplePath,
		now:        time.Now,
	}
}

// Initialize loads and parses the sample file. Idempotent.
func (p *Provider) Initialize(ctx context.Context) error {
	if p.Initialized() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := os.ReadFile(p.samplePath)
	if err != nil {
		return fmt.Errorf("read sample export: %w", err)
	}

	var f sampleFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse sample export: %w", err)
	}

	p.mu.Lock()
	p.samples = f.Samples
	p.mu.Unlock()
	p.MarkInitialized()
	return nil
}

// Cleanup releases the loaded samples. Safe to call after a failed
// Initialize, and idempotent.
func (p *Provider) Cleanup(ctx context.Context) error {
	p.mu.Lock()
	p.samples = nil
	p.mu.Unlock()
	p.MarkCleanedUp()
	return nil
}

// InitializePermissions binds the permission manager for the target user.
func (p *Provider) InitializePermissions(ctx context.Context, userID string) error {
	return p.BindPermissions(userID, p)
}

// CheckPermissions reports granted while the sample file is readable. A
// local export has no consent dialog; an unreadable file is the closest
// analogue to revoked access.
func (p *Provider) CheckPermissions(ctx context.Context) (models.PermissionState, error) {
	if _, err := os.Stat(p.samplePath); err != nil {
		return models.PermissionState{
			Status:      models.PermissionDenied,
			LastChecked: p.now(),
		}, nil
	}
	return models.PermissionState{
		Status:      models.PermissionGranted,
		LastChecked: p.now(),
	}, nil
}

// RequestPermissions re-checks; there is no dialog to show.
func (p *Provider) RequestPermissions(ctx context.Context) (models.PermissionStatus, error) {
	state, err := p.CheckPermissions(ctx)
	if err != nil {
		return models.PermissionNotDetermined, err
	}
	return state.Status, nil
}

// Available reports whether the sample file exists.
func (p *Provider) Available(ctx context.Context) bool {
	_, err := os.Stat(p.samplePath)
	return err == nil
}

// FetchRaw returns the loaded samples overlapping [start, end) for the
// requested types.
func (p *Provider) FetchRaw(ctx context.Context, start, end time.Time, types []models.MetricType) (*models.RawHealthData, error) {
	if !p.Initialized() {
		return nil, fmt.Errorf("provider not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[models.MetricType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data := &models.RawHealthData{Start: start, End: end}
	for _, s := range p.samples {
		if !wanted[s.MetricType] {
			continue
		}
		if s.StartTime.Before(start) || !s.StartTime.Before(end) {
			continue
		}
		data.Samples = append(data.Samples, s)
	}
	return data, nil
}

// Normalize converts raw samples of one type into normalized metrics in a
// single pass. Distance in meters converts to kilometers; everything else
// passes through in its native unit.
func (p *Provider) Normalize(raw *models.RawHealthData, mt models.MetricType) []models.NormalizedMetric {
	if raw == nil {
		return nil
	}

	var out []models.NormalizedMetric
	for _, s := range raw.Samples {
		if s.MetricType != mt {
			continue
		}
		value := s.Value
		unit := s.Unit
		if mt == models.MetricDistance && s.Unit == "m" {
			value = s.Value / 1000
			unit = "km"
		}
		if unit == "" {
			unit = models.MetricUnits[mt]
		}
		out = append(out, models.NormalizedMetric{
			MetricType: mt,
			Value:      value,
			Unit:       unit,
			RecordedAt: s.StartTime,
		})
	}
	return out
}

// Metrics returns today's aggregate across all metric types.
func (p *Provider) Metrics(ctx context.Context) (*models.HealthMetrics, error) {
	now := p.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour)

	raw, err := p.FetchRaw(ctx, start, end, models.AllMetricTypes)
	if err != nil {
		return nil, err
	}

	normalized := make(map[models.MetricType][]models.NormalizedMetric, len(models.AllMetricTypes))
	for _, mt := range models.AllMetricTypes {
		normalized[mt] = p.Normalize(raw, mt)
	}

	hm, err := provider.Aggregate(p.UserID(), start.Format("2006-01-02"), normalized)
	if err != nil {
		return nil, err
	}
	p.SetLastSyncTime(now)
	return hm, nil
}

// SetClock overrides the provider's clock. Test hook.
func (p *Provider) SetClock(now func() time.Time) {
	p.now = now
}
