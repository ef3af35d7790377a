package health

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Pinger is a dependency that answers a liveness ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthChecker struct {
	deps    map[string]Pinger
	started time.Time
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type HealthStatus struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	Goroutines    int     `json:"goroutines"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime string    `json:"uptime"`
	Host   HostStats `json:"host"`
}

// NewHealthChecker checks the named dependencies. A nil Pinger is reported
// as disabled and does not make the service unhealthy.
func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps, started: time.Now()}
}

// CheckBasic is the liveness answer: the process is serving.
func (h *HealthChecker) CheckBasic() HealthStatus {
	return HealthStatus{Status: StatusHealthy}
}

// CheckReady pings every dependency.
func (h *HealthChecker) CheckReady(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: StatusHealthy, Dependencies: make(map[string]DependencyHealth, len(h.deps))}
	for name, dep := range h.deps {
		d := check(ctx, dep)
		if d.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
		status.Dependencies[name] = d
	}
	return status
}

// CheckDetailed adds host resource usage to CheckReady.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	return DetailedStatus{
		HealthStatus: h.CheckReady(ctx),
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Host:         hostStats(),
	}
}

func check(ctx context.Context, dep Pinger) DependencyHealth {
	if dep == nil {
		return DependencyHealth{Status: StatusDisabled}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := dep.Ping(ctx)
	d := DependencyHealth{Status: StatusHealthy, ResponseTime: time.Since(start).Milliseconds()}
	if err != nil {
		d.Status = StatusUnhealthy
		d.Error = err.Error()
	}
	return d
}

func hostStats() HostStats {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}
	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memStats.UsedPercent
		stats.MemoryUsedMB = memStats.Used / (1024 * 1024)
		stats.MemoryTotalMB = memStats.Total / (1024 * 1024)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = diskStats.UsedPercent
	}
	return stats
}
