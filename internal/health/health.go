package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthChecker struct {
	db    Pinger
	cache Pinger // nil when redis is disabled
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Cache    ComponentHealth `json:"cache"`
	Host     *HostStats      `json:"host,omitempty"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type HostStats struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	MemoryTotalMB     uint64  `json:"memory_total_mb"`
	DiskUsedPercent   float64 `json:"disk_used_percent"`
	DiskFreeGB        float64 `json:"disk_free_gb"`
}

func NewHealthChecker(db, cache Pinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// CheckReady pings the database and, when configured, redis. A cache outage
// degrades but does not fail readiness.
func (h *HealthChecker) CheckReady(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:   "healthy",
		Database: check(ctx, h.db),
		Cache:    ComponentHealth{Status: "disabled"},
	}
	if h.cache != nil {
		status.Cache = check(ctx, h.cache)
	}

	if status.Database.Status != "healthy" {
		status.Status = "unhealthy"
	} else if status.Cache.Status == "unhealthy" {
		status.Status = "degraded"
	}
	return status
}

// CheckDetailed is CheckReady plus host memory and disk usage.
func (h *HealthChecker) CheckDetailed(ctx context.Context) HealthStatus {
	status := h.CheckReady(ctx)
	host := &HostStats{}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		host.MemoryUsedPercent = vm.UsedPercent
		host.MemoryTotalMB = vm.Total / 1024 / 1024
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		host.DiskUsedPercent = du.UsedPercent
		host.DiskFreeGB = float64(du.Free) / 1024 / 1024 / 1024
	}
	status.Host = host
	return status
}

func check(ctx context.Context, p Pinger) ComponentHealth {
	if p == nil {
		return ComponentHealth{Status: "unhealthy", Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime, Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}
