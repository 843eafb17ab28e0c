package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	RegisterRetrievalMetrics()
	RegisterRetrievalMetrics()
	RegisterProviderMetrics()
	RegisterProviderMetrics()
}

func TestObserveProviderCall(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("cohere", OpRerank, "error"))

	ObserveProviderCall("cohere", OpRerank, errors.New("boom"), 0.2)
	ObserveProviderCall("cohere", OpRerank, nil, 0.1)

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("cohere", OpRerank, "error")); got != before+1 {
		t.Errorf("expected error count %f, got %f", before+1, got)
	}
	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("cohere", OpRerank, "success")); got < 1 {
		t.Errorf("expected success count >= 1, got %f", got)
	}
	if testutil.CollectAndCount(ProviderRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}
