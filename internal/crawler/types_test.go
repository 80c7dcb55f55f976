package crawler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordRowFollowsColumns(t *testing.T) {
	rec := Record{
		Title:        "Compte rendu",
		URL:          "https://example.org/a.pdf",
		Source:       "leg5-cri",
		Kind:         KindDocument,
		Legislature:  5,
		PageCount:    4,
		Author:       Unknown,
		Keywords:     []string{"bumidom", "martinique"},
		MentionCount: 3,
		Contexts:     []string{"a", "b"},
		LocalSize:    1024,
		DownloadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	row := rec.Row()
	require.Len(t, row, len(RecordColumns))

	byName := make(map[string]string, len(row))
	for i, col := range RecordColumns {
		byName[col] = row[i]
	}
	require.Equal(t, "bumidom, martinique", byName["keywords"])
	require.Equal(t, "a | b", byName["contexts"])
	require.Equal(t, "5", byName["legislature"])
	require.Equal(t, "1024", byName["local_size"])
	require.Equal(t, "2026-01-02T03:04:05Z", byName["downloaded_at"])
	require.Empty(t, byName["error"])
}

func TestOutcomes(t *testing.T) {
	require.True(t, Ok(Record{}).HasRecord())
	require.False(t, Skip(errors.New("404")).HasRecord())

	cause := &ExtractionError{URL: "u", Title: "t", Err: errors.New("bad xref")}
	out := Degrade(Record{Title: "t"}, cause)
	require.True(t, out.HasRecord())
	require.True(t, out.Record.Degraded())
	require.Contains(t, out.Record.Error, "bad xref")
}

func TestErrorsUnwrap(t *testing.T) {
	root := errors.New("timeout")
	var te *TransportError
	require.ErrorAs(t, error(&TransportError{URL: "u", Err: root}), &te)
	require.ErrorIs(t, &TransportError{URL: "u", Err: root}, root)
	require.ErrorIs(t, &ParseError{URL: "u", Err: root}, root)
	require.ErrorIs(t, &ExtractionError{URL: "u", Err: root}, root)
	require.Equal(t, "fetch u: status 500", (&TransportError{URL: "u", Status: 500}).Error())
}
