package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	docs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_documents_total",
		Help: "Document candidates processed, labeled by outcome.",
	}, []string{"outcome"})
	phase := prometheus.NewGauge(prometheus.GaugeOpts{Name: "archive_phase", Help: "Current phase."})
	reg.MustRegister(docs, phase)
	docs.WithLabelValues("ok").Add(3)
	docs.WithLabelValues("skip").Add(2)
	phase.Set(4)
	return reg
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "textfile", "bumidom.prom")
	require.NoError(t, WriteTextfile(path, newRegistry(t)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `archive_documents_total{outcome="ok"} 3`)
	assert.Contains(t, string(raw), `archive_documents_total{outcome="skip"} 2`)
}

func TestWriteTextfileDisabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, WriteTextfile("", newRegistry(t)))
}

func TestTotals(t *testing.T) {
	t.Parallel()

	totals, err := Totals(newRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, 5.0, totals["archive_documents_total"])
	_, hasGauge := totals["archive_phase"]
	assert.False(t, hasGauge)
}
