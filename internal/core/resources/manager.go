package resources

import (
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/standardforever/job-scrapper/internal/logger"
)

const (
	maxCPUPercent    = 80.0
	maxMemoryPercent = 85.0
	cpuPerWorker     = 15.0
	memoryPerWorker  = 0.5 // GB
	reservedMemoryGB = 1.0
	baseWorkers      = 1
	maxWorkers       = 8
)

// Snapshot is a point-in-time view of host utilisation.
type Snapshot struct {
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	AvailableGB     float64 `json:"available_memory_gb"`
	TotalGB         float64 `json:"total_memory_gb"`
	ActiveWorkers   int     `json:"active_workers"`
	RecommendedSize int     `json:"recommended_workers"`
}

// probe lets tests substitute deterministic readings for gopsutil.
type probe func() (cpuPercent float64, memPercent float64, availableGB float64, totalGB float64, err error)

func systemProbe() (float64, float64, float64, float64, error) {
	percents, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil || len(percents) == 0 {
		return 0, 0, 0, 0, fmt.Errorf("cpu sample failed: %w", err)
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("memory sample failed: %w", err)
	}
	const gb = 1024 * 1024 * 1024
	return percents[0], vm.UsedPercent, float64(vm.Available) / gb, float64(vm.Total) / gb, nil
}

// Manager sizes batch worker pools against live CPU and memory
// headroom, and tracks how many workers are currently allocated.
type Manager struct {
	mu      sync.Mutex
	workers int
	probe   probe
	log     *logger.Logger
}

func NewManager() *Manager {
	return &Manager{probe: systemProbe, log: logger.New("resources")}
}

// Recommended returns how many workers the host can sustain right now.
// The answer is never below baseWorkers even under pressure, so a batch
// can always make progress.
func (m *Manager) Recommended() int {
	cpuPct, memPct, availGB, _, err := m.probe()
	if err != nil {
		m.log.LogWarnf("Resource sampling failed, using base worker count: %v", err)
		return baseWorkers
	}
	return recommend(cpuPct, memPct, availGB)
}

func recommend(cpuPct, memPct, availGB float64) int {
	if cpuPct >= maxCPUPercent || memPct >= maxMemoryPercent {
		return baseWorkers
	}

	cpuHeadroom := maxCPUPercent - cpuPct
	byCPU := int(cpuHeadroom / cpuPerWorker)

	usableGB := availGB - reservedMemoryGB
	byMemory := int(usableGB / memoryPerWorker)

	n := byCPU
	if byMemory < n {
		n = byMemory
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	if n < baseWorkers {
		n = baseWorkers
	}
	return n
}

// CanAcceptBatch reports whether a new batch may start. Only one batch
// runs at a time, so any allocated workers block acceptance.
func (m *Manager) CanAcceptBatch() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.workers > 0 {
		return false, fmt.Sprintf("%d workers already active", m.workers)
	}
	return true, ""
}

// Allocate claims workers for a starting batch and returns the count
// actually granted. A positive maxRequested caps the grant below the
// host recommendation.
func (m *Manager) Allocate(maxRequested int) int {
	n := m.Recommended()
	if maxRequested > 0 && maxRequested < n {
		n = maxRequested
	}
	m.mu.Lock()
	m.workers += n
	m.mu.Unlock()
	m.log.LogInfof("Allocated %d workers", n)
	return n
}

// Release returns workers after a batch finishes.
func (m *Manager) Release(n int) {
	m.mu.Lock()
	m.workers -= n
	if m.workers < 0 {
		m.workers = 0
	}
	m.mu.Unlock()
}

// Status samples the host and reports utilisation plus allocation state.
func (m *Manager) Status() Snapshot {
	cpuPct, memPct, availGB, totalGB, err := m.probe()
	if err != nil {
		m.log.LogWarnf("Resource sampling failed: %v", err)
	}
	m.mu.Lock()
	active := m.workers
	m.mu.Unlock()
	return Snapshot{
		CPUPercent:      cpuPct,
		MemoryPercent:   memPct,
		AvailableGB:     availGB,
		TotalGB:         totalGB,
		ActiveWorkers:   active,
		RecommendedSize: recommend(cpuPct, memPct, availGB),
	}
}
