package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEvent(t *testing.T) {
	m := New()
	m.ObserveEvent(SourcePush, false)
	m.ObserveEvent(SourcePoll, true)
	m.ObserveEvent(SourcePoll, false)

	if got := testutil.ToFloat64(m.EventsReceived.WithLabelValues(SourcePoll)); got != 2 {
		t.Errorf("expected 2 poll events, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventDuplicates); got != 1 {
		t.Errorf("expected 1 duplicate, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvent(SourcePush, true)
	m.ObserveReconnect()
	m.ObserveParseFailure()
	m.ObserveUpload("ok")
	if m.InstrumentTransport(http.DefaultTransport) != http.DefaultTransport {
		t.Error("nil metrics should return the transport unchanged")
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveReconnect()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "consultant_stream_reconnects_total 1") {
		t.Errorf("reconnect counter missing from output:\n%s", rec.Body.String())
	}
}
