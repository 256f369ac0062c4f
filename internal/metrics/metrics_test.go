package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/circuit/internal/voting"
)

func counterValue(m *MetricService, name string) float64 {
	return testutil.ToFloat64(m.MetricsMap[name].(prometheus.Counter))
}

func TestObserveVote(t *testing.T) {
	m := NewMetricService()
	m.ObserveVote(voting.Result{Transition: voting.Cast})
	m.ObserveVote(voting.Result{Transition: voting.Switch})
	m.ObserveVote(voting.Result{Transition: voting.Retract})
	m.ObserveVote(voting.Result{Transition: voting.Cast, RolledBack: true})
	m.ObserveVote(voting.Result{Ignored: true})

	require.Equal(t, 1.0, counterValue(m, MetricVotesCast))
	require.Equal(t, 1.0, counterValue(m, MetricVotesSwitched))
	require.Equal(t, 1.0, counterValue(m, MetricVotesRetracted))
	require.Equal(t, 1.0, counterValue(m, MetricVoteRollbacks))
	require.Equal(t, 1.0, counterValue(m, MetricVoteIgnoredBusy))
}

func TestObservePublishAndHandler(t *testing.T) {
	m := NewMetricService()
	m.ObservePublish(10*time.Millisecond, nil)
	m.ObservePublish(time.Millisecond, errors.New("boom"))
	m.IncClubsCreated()

	require.Equal(t, 1.0, counterValue(m, MetricReviewsPublished))
	require.Equal(t, 1.0, counterValue(m, MetricPublishFailures))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "clubs_created 1"), body)
	require.True(t, strings.Contains(body, "publish_duration_count 2"), body)
}
