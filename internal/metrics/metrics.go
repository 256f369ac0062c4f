package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sujalbistaa/circuit/internal/voting"
)

const (
	// Votes
	MetricVotesCast       = "votes_cast"
	MetricVotesSwitched   = "votes_switched"
	MetricVotesRetracted  = "votes_retracted"
	MetricVoteRollbacks   = "vote_rollbacks"
	MetricVoteIgnoredBusy = "vote_ignored_busy"
	// Submissions
	MetricReviewsPublished = "reviews_published"
	MetricPublishFailures  = "publish_failures"
	MetricPublishDuration  = "publish_duration"
	MetricClubsCreated     = "clubs_created"
	MetricDraftsSaved      = "drafts_saved"
)

type MetricService struct {
	MetricsMap map[string]prometheus.Metric
	registry   *prometheus.Registry
}

func NewMetricService() *MetricService {
	ms := make(map[string]prometheus.Metric, 0)
	reg := prometheus.NewRegistry()

	counter := func(name, help string) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		ms[name] = c
		reg.MustRegister(c)
	}

	// Votes
	counter(MetricVotesCast, "Votes cast on reviews")
	counter(MetricVotesSwitched, "Votes switched between like and dislike")
	counter(MetricVotesRetracted, "Votes retracted")
	counter(MetricVoteRollbacks, "Optimistic vote updates rolled back after a failed write")
	counter(MetricVoteIgnoredBusy, "Vote clicks dropped while a previous write was in flight")

	// Submissions
	counter(MetricReviewsPublished, "Reviews published")
	counter(MetricPublishFailures, "Publish attempts that failed")
	counter(MetricClubsCreated, "Organizers created while publishing")
	counter(MetricDraftsSaved, "Draft saves")

	publishDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: MetricPublishDuration,
		Help: "Duration of resolving the organizer and inserting the review",
	})
	ms[MetricPublishDuration] = publishDuration
	reg.MustRegister(publishDuration)

	reg.MustRegister(collectors.NewGoCollector())

	return &MetricService{
		MetricsMap: ms,
		registry:   reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricService) inc(name string) {
	m.MetricsMap[name].(prometheus.Counter).Inc()
}

// ObserveVote records the outcome of one vote click.
func (m *MetricService) ObserveVote(res voting.Result) {
	switch {
	case res.Ignored:
		m.inc(MetricVoteIgnoredBusy)
		return
	case res.RolledBack:
		m.inc(MetricVoteRollbacks)
		return
	}
	switch res.Transition {
	case voting.Cast:
		m.inc(MetricVotesCast)
	case voting.Switch:
		m.inc(MetricVotesSwitched)
	case voting.Retract:
		m.inc(MetricVotesRetracted)
	}
}

// ObservePublish implements submission.Observer.
func (m *MetricService) ObservePublish(elapsed time.Duration, err error) {
	m.MetricsMap[MetricPublishDuration].(prometheus.Histogram).Observe(elapsed.Seconds())
	if err != nil {
		m.inc(MetricPublishFailures)
		return
	}
	m.inc(MetricReviewsPublished)
}

func (m *MetricService) IncClubsCreated() {
	m.inc(MetricClubsCreated)
}

func (m *MetricService) IncDraftsSaved() {
	m.inc(MetricDraftsSaved)
}
