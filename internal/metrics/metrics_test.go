package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() pipeline.Report {
	return pipeline.Report{
		Started:  time.Unix(1706600000, 0),
		Finished: time.Unix(1706600042, 0),
		Results: []pipeline.Result{
			{Council: "Monash", Outcome: pipeline.OutcomeDone, Duration: 3 * time.Second},
			{Council: "Yarra", Outcome: pipeline.OutcomeFailed, Duration: time.Second},
			{Council: "Darebin", Outcome: pipeline.OutcomeDuplicate},
		},
	}
}

func TestRecordCountsOutcomes(t *testing.T) {
	r := New()
	r.Record(sampleReport())
	r.Record(sampleReport())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues("monash", "done")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues("yarra", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.duration.WithLabelValues("monash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failed))
	assert.Equal(t, 1706600042.0, testutil.ToFloat64(r.lastRun))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Record(sampleReport())

	path := filepath.Join(t.TempDir(), "agendas.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `agendas_council_outcomes_total{council="darebin",outcome="duplicate"} 1`)
	assert.Contains(t, string(raw), "agendas_last_run_failed_councils 1")
}

func TestWriteTextfileBlankPath(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(" "))
}
