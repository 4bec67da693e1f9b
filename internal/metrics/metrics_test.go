package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStage(t *testing.T) {
	before := testutil.CollectAndCount(StageDuration)
	ObserveStage("test_stage", time.Now().Add(-time.Second))
	assert.Equal(t, before+1, testutil.CollectAndCount(StageDuration))
}

func TestRunsTotal(t *testing.T) {
	c := RunsTotal.WithLabelValues("text", OutcomeSuccess)
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
