package breaker

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/fusebox/cache"
	"github.com/ceyewan/fusebox/xerrors"
)

// TestMetricsListenerCallbacks 各回调落到正确的指标上
func TestMetricsListenerCallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	ml, err := NewMetricsListener(reg)
	require.NoError(t, err)

	ev := Event{Identity: "svc", Previous: StatusClosed, Current: StatusOpen}
	ml.OnBreakerTripped(ev)
	assert.Equal(t, float64(1),
		testutil.ToFloat64(ml.stateChanges.WithLabelValues("svc", "open")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(ml.state.WithLabelValues("svc")))

	ev = Event{Identity: "svc", Previous: StatusOpen, Current: StatusClosed}
	ml.OnBreakerReset(ev)
	assert.Equal(t, float64(1),
		testutil.ToFloat64(ml.stateChanges.WithLabelValues("svc", "closed")))
	assert.Equal(t, float64(0),
		testutil.ToFloat64(ml.state.WithLabelValues("svc")))

	ml.OnRequestRejected(Event{Identity: "svc"})
	ml.OnRequestRejected(Event{Identity: "svc"})
	ml.OnRequestTheoreticallyRejected(Event{Identity: "svc"})
	assert.Equal(t, float64(2),
		testutil.ToFloat64(ml.rejects.WithLabelValues("svc", "enforced")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(ml.rejects.WithLabelValues("svc", "shadow")))
}

// TestMetricsListenerWired 监听器挂到熔断器上端到端出指标
func TestMetricsListenerWired(t *testing.T) {
	reg := prometheus.NewRegistry()
	ml, err := NewMetricsListener(reg)
	require.NoError(t, err)

	c, err := cache.New(&cache.Config{Driver: cache.DriverMemory})
	require.NoError(t, err)
	defer c.Close()

	brk, err := New(c, &Config{FailureThreshold: 50, MinRequests: 2}, WithListener(ml))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = brk.Execute(ctx, "svc", func() error { return xerrors.New("boom") })
	}
	_ = brk.Execute(ctx, "svc", func() error { return nil })

	assert.Equal(t, float64(1),
		testutil.ToFloat64(ml.stateChanges.WithLabelValues("svc", "open")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(ml.rejects.WithLabelValues("svc", "enforced")))
}

// TestMetricsListenerDuplicateRegister 重复注册返回错误
func TestMetricsListenerDuplicateRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsListener(reg)
	require.NoError(t, err)
	_, err = NewMetricsListener(reg)
	assert.Error(t, err)
}
