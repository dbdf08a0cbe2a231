package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}
}

func TestCollectorRecordDecision(t *testing.T) {
	c := NewCollector()

	c.RecordDecision("Allow", 10*time.Millisecond)
	c.RecordDecision("Allow", 20*time.Millisecond)
	c.RecordDecision("Deny", 5*time.Millisecond)

	output := c.PrometheusFormat()

	if !strings.Contains(output, `hodei_authz_decisions_total{decision="Allow"} 2`) {
		t.Error("expected 2 allow decisions")
	}
	if !strings.Contains(output, `hodei_authz_decisions_total{decision="Deny"} 1`) {
		t.Error("expected 1 deny decision")
	}
}

func TestCollectorRecordError(t *testing.T) {
	c := NewCollector()

	c.RecordError("PrincipalNotFound")
	c.RecordError("PrincipalNotFound")
	c.RecordError("Timeout")

	output := c.PrometheusFormat()

	if !strings.Contains(output, `hodei_authz_errors_total{kind="PrincipalNotFound"} 2`) {
		t.Error("expected 2 PrincipalNotFound errors")
	}
	if !strings.Contains(output, `hodei_authz_errors_total{kind="Timeout"} 1`) {
		t.Error("expected 1 Timeout error")
	}
}

func TestCollectorRecordCacheHit(t *testing.T) {
	c := NewCollector()

	c.RecordCacheHit(true)
	c.RecordCacheHit(true)
	c.RecordCacheHit(false)

	output := c.PrometheusFormat()

	if !strings.Contains(output, "hodei_authz_cache_hits_total 2") {
		t.Error("expected 2 cache hits")
	}
	if !strings.Contains(output, "hodei_authz_cache_misses_total 1") {
		t.Error("expected 1 cache miss")
	}
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.RecordDecision("Allow", time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	c.Handler()(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text/plain content type, got %s", ct)
	}
	if !strings.Contains(rr.Body.String(), "hodei_authz_decisions_total") {
		t.Error("expected decisions metric in response")
	}
}
