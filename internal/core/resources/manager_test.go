package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardforever/job-scrapper/internal/logger"
)

func testManager(cpuPct, memPct, availGB float64) *Manager {
	return &Manager{
		probe: func() (float64, float64, float64, float64, error) {
			return cpuPct, memPct, availGB, 16, nil
		},
		log: logger.New("resources-test"),
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		cpuPct  float64
		memPct  float64
		availGB float64
		want    int
	}{
		{"idle host caps at max", 5, 20, 12, 8},
		{"cpu bound", 50, 20, 12, 2},
		{"memory bound", 5, 20, 2.2, 2},
		{"cpu over threshold", 85, 20, 12, 1},
		{"memory over threshold", 5, 90, 12, 1},
		{"tight memory never below base", 5, 20, 1.1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommend(tt.cpuPct, tt.memPct, tt.availGB))
		})
	}
}

func TestAllocateRelease(t *testing.T) {
	m := testManager(5, 20, 12)

	ok, _ := m.CanAcceptBatch()
	assert.True(t, ok)

	n := m.Allocate(0)
	assert.Equal(t, 8, n)

	ok, reason := m.CanAcceptBatch()
	assert.False(t, ok)
	assert.Contains(t, reason, "workers already active")

	m.Release(n)
	ok, _ = m.CanAcceptBatch()
	assert.True(t, ok)
}

func TestAllocateHonoursRequestedCap(t *testing.T) {
	m := testManager(5, 20, 12)
	n := m.Allocate(3)
	assert.Equal(t, 3, n)
	m.Release(n)
}

func TestReleaseNeverGoesNegative(t *testing.T) {
	m := testManager(5, 20, 12)
	m.Release(3)
	assert.Equal(t, 0, m.Status().ActiveWorkers)
}

func TestStatusReportsRecommendation(t *testing.T) {
	m := testManager(50, 20, 12)
	s := m.Status()
	assert.Equal(t, 50.0, s.CPUPercent)
	assert.Equal(t, 2, s.RecommendedSize)
	assert.Equal(t, 16.0, s.TotalGB)
}
