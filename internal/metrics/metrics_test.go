package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePage(t *testing.T) {
	before := testutil.ToFloat64(pagesTotal.WithLabelValues("image", "failed"))
	ObservePage("image", false, 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(pagesTotal.WithLabelValues("image", "failed")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	Init()
	ObserveConversion("ok", time.Second)
	AddTempRemoved(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "pdfword_conversions_total"))
	assert.True(t, strings.Contains(body, "pdfword_temp_artifacts_removed_total"))
}
