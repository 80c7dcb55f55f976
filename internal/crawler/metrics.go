package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SectionsTotal counts listing pages by result (ok, skipped).
	SectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_sections_total",
		Help: "Listing pages scanned, labeled by result.",
	}, []string{"kind", "result"})
	// DocumentsTotal counts candidates by outcome (ok, skip, degraded).
	DocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_documents_total",
		Help: "Document candidates processed, labeled by outcome.",
	}, []string{"outcome"})
	// BytesDownloaded tracks the PDF bytes persisted.
	BytesDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_pdf_bytes_total",
		Help: "Total PDF bytes downloaded and stored.",
	})
	// MentionsTotal tracks topic mentions found across all documents.
	MentionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_topic_mentions_total",
		Help: "Total topic keyword mentions found.",
	})
	// PhaseTransitions counts entries into each pipeline phase.
	PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_phase_transitions_total",
		Help: "Pipeline phase entries, labeled by phase.",
	}, []string{"phase"})
)
