package metrics_test

import (
	"sync"
	"testing"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMetrics_Repeatable(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.RegisterMetrics()
		metrics.RegisterMetrics()
	})
}

func TestSetBrokerState(t *testing.T) {
	all := []string{"disconnected", "connecting", "connected", "backoff"}

	metrics.SetBrokerState("connecting", all...)
	metrics.SetBrokerState("connected", all...)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BrokerState.WithLabelValues("connected")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.BrokerState.WithLabelValues("connecting")))
}

func TestSetBrokerState_ConcurrentTransitionsLeaveOneLabelSet(t *testing.T) {
	all := []string{"disconnected", "connecting", "connected", "backoff"}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			metrics.SetBrokerState(all[i%len(all)], all...)
		}(i)
	}
	wg.Wait()

	var total float64
	for _, s := range all {
		total += testutil.ToFloat64(metrics.BrokerState.WithLabelValues(s))
	}
	assert.Equal(t, float64(1), total)
}
