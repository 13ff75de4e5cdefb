package health

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusConstructors(t *testing.T) {
	healthy := NewHealthy("api", "serving")
	assert.True(t, healthy.IsHealthy())
	assert.True(t, healthy.Healthy)
	assert.Equal(t, "api", healthy.Component)

	unhealthy := NewUnhealthy("announcer", "connection lost")
	assert.True(t, unhealthy.IsUnhealthy())
	assert.False(t, unhealthy.Healthy)

	degraded := NewDegraded("metrics", "slow scrapes")
	assert.True(t, degraded.IsDegraded())
	assert.False(t, degraded.Healthy)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		sub        []Status
		wantStatus string
	}{
		{
			name:       "empty is healthy",
			sub:        nil,
			wantStatus: "healthy",
		},
		{
			name:       "all healthy",
			sub:        []Status{NewHealthy("a", ""), NewHealthy("b", "")},
			wantStatus: "healthy",
		},
		{
			name:       "one degraded",
			sub:        []Status{NewHealthy("a", ""), NewDegraded("b", "")},
			wantStatus: "degraded",
		},
		{
			name:       "unhealthy wins over degraded",
			sub:        []Status{NewDegraded("a", ""), NewUnhealthy("b", "")},
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("registry", tt.sub)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Len(t, got.SubStatuses, len(tt.sub))
		})
	}
}

func TestMonitorUpdateAndGet(t *testing.T) {
	m := NewMonitor()

	m.UpdateHealthy("api", "serving")
	m.UpdateUnhealthy("announcer", "no connection")

	status, ok := m.Get("api")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "api", status.Component)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, m.Count())

	agg := m.AggregateHealth("registry")
	assert.Equal(t, "unhealthy", agg.Status)

	m.UpdateHealthy("announcer", "reconnected")
	agg = m.AggregateHealth("registry")
	assert.Equal(t, "healthy", agg.Status)
}

func TestMonitorConcurrentAccess(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				m.UpdateHealthy("api", "serving")
			} else {
				_ = m.AggregateHealth("registry")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, m.Count())
}
