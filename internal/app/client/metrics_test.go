package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacekeeper/internal/domain/activity"
	"pacekeeper/internal/domain/syncstate"
)

func TestMetrics_WriteReadReconcile(t *testing.T) {
	env := newTestEnv(t, NewMemoryCache())
	env.login("profile-1")
	c := newActivities(env)
	ctx := context.Background()

	synced := writeOutcomes.WithLabelValues(CollectionActivities, string(syncstate.Synced))
	pending := writeOutcomes.WithLabelValues(CollectionActivities, string(syncstate.Pending))
	fallbacks := readFallbacks.WithLabelValues(CollectionActivities)
	reconciled := reconciledCounter.WithLabelValues(CollectionActivities)

	beforeSynced := testutil.ToFloat64(synced)
	beforePending := testutil.ToFloat64(pending)
	beforeFallbacks := testutil.ToFloat64(fallbacks)
	beforeReconciled := testutil.ToFloat64(reconciled)

	_, err := c.Write(ctx, activity.Record{Title: "online"})
	require.NoError(t, err)

	env.remote.setInsertErr(ErrUnavailable)
	env.remote.mu.Lock()
	env.remote.selectErr = ErrUnavailable
	env.remote.mu.Unlock()

	_, err = c.Write(ctx, activity.Record{Title: "offline"})
	require.NoError(t, err)
	_, err = c.Load(ctx)
	require.NoError(t, err)

	env.remote.setInsertErr(nil)
	confirmed, err := c.Reconcile(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, confirmed)

	assert.InDelta(t, beforeSynced+1, testutil.ToFloat64(synced), 0.0001)
	assert.InDelta(t, beforePending+1, testutil.ToFloat64(pending), 0.0001)
	assert.InDelta(t, beforeFallbacks+1, testutil.ToFloat64(fallbacks), 0.0001)
	assert.InDelta(t, beforeReconciled+1, testutil.ToFloat64(reconciled), 0.0001)
}

func TestMetrics_LogReporterCounts(t *testing.T) {
	counter := reportedErrors.WithLabelValues("load_activities")
	before := testutil.ToFloat64(counter)

	r := NewLogReporter(discardLogger())
	r.Report("load_activities", errors.New("timeout"))
	r.Report("load_activities", nil)

	assert.InDelta(t, before+1, testutil.ToFloat64(counter), 0.0001)
}

func TestMetricsHandler(t *testing.T) {
	reconciledCounter.WithLabelValues(CollectionPlans).Inc()

	srv := httptest.NewServer(MetricsHandler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `pacekeeper_client_reconciled_total{collection="training_plans"}`)
}

func TestServeMetrics_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- serveMetrics(ctx, "127.0.0.1:0", discardLogger())
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("сервер метрик не остановился")
	}
}
