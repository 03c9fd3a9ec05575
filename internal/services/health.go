package services

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const (
	StatusConnected     = "connected"
	StatusDisconnected  = "disconnected"
	StatusConfigured    = "configured"
	StatusNotConfigured = "not_configured"

	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"

	probeTimeout = 5 * time.Second
)

// Probe checks one collaborator. Deep probes spend provider quota and only
// run when a deep check is requested; otherwise they report "configured".
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
	Deep  bool
}

type HealthReport struct {
	Status            string            `json:"status"`
	Timestamp         time.Time         `json:"timestamp"`
	Services          map[string]string `json:"services"`
	ConnectedServices int               `json:"connected_services"`
	TotalServices     int               `json:"total_services"`
}

type HealthService interface {
	Check(ctx context.Context, deep bool) HealthReport
}

type healthService struct {
	log    *logger.Logger
	probes []Probe
	// missing names collaborators that have no configuration at all
	missing []string
}

func NewHealthService(baseLog *logger.Logger, probes []Probe, missing []string) HealthService {
	return &healthService{log: baseLog.With("service", "HealthService"), probes: probes, missing: missing}
}

// Check runs every probe concurrently. A "configured" service counts as up.
func (s *healthService) Check(ctx context.Context, deep bool) HealthReport {
	report := HealthReport{
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]string, len(s.probes)+len(s.missing)),
	}
	for _, name := range s.missing {
		report.Services[name] = StatusNotConfigured
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range s.probes {
		if p.Deep && !deep {
			report.Services[p.Name] = StatusConfigured
			continue
		}
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			status := StatusConnected
			if err := p.Check(pctx); err != nil {
				status = StatusDisconnected
				s.log.Warn("Health probe failed", "probe", p.Name, "error", err)
			}
			mu.Lock()
			report.Services[p.Name] = status
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	for _, status := range report.Services {
		if status == StatusConnected || status == StatusConfigured {
			report.ConnectedServices++
		}
	}
	report.TotalServices = len(report.Services)
	switch {
	case report.TotalServices > 0 && report.ConnectedServices == report.TotalServices:
		report.Status = HealthHealthy
	case report.ConnectedServices > 0:
		report.Status = HealthDegraded
	default:
		report.Status = HealthUnhealthy
	}
	return report
}
