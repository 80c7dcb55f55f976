package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentFilename(t *testing.T) {
	t.Run("sanitizes title", func(t *testing.T) {
		name := documentFilename("Séance du 12/03/1965 : BUMIDOM", "https://example.org/a.pdf", 50)
		require.True(t, strings.HasPrefix(name, "S_ance_du_12_03_1965_BUMIDOM_"), name)
		require.True(t, strings.HasSuffix(name, ".pdf"))
		require.NotContains(t, name, "/")
	})

	t.Run("caps title length", func(t *testing.T) {
		name := documentFilename(strings.Repeat("x", 200), "https://example.org/a.pdf", 50)
		require.Equal(t, 50+1+8+len(".pdf"), len(name))
	})

	t.Run("empty title falls back", func(t *testing.T) {
		name := documentFilename("///", "https://example.org/a.pdf", 0)
		require.True(t, strings.HasPrefix(name, "document_"))
	})

	t.Run("same title different url", func(t *testing.T) {
		a := documentFilename("Compte rendu", "https://example.org/a.pdf", 50)
		b := documentFilename("Compte rendu", "https://example.org/b.pdf", 50)
		require.NotEqual(t, a, b)
	})
}

func TestBlobPath(t *testing.T) {
	require.Equal(t, "pdfs/a.pdf", blobPath("pdfs", "a.pdf"))
	require.Equal(t, "a.pdf", blobPath("", "a.pdf"))
}

func TestClaimPath(t *testing.T) {
	taken := make(map[string]struct{})
	require.Equal(t, "pdfs/a_1234.pdf", claimPath("pdfs/a_1234.pdf", taken))
	require.Equal(t, "pdfs/a_1234-2.pdf", claimPath("pdfs/a_1234.pdf", taken))
	require.Equal(t, "pdfs/a_1234-3.pdf", claimPath("pdfs/a_1234.pdf", taken))
	require.Equal(t, "pdfs/b_5678.pdf", claimPath("pdfs/b_5678.pdf", taken))
	require.Len(t, taken, 4)
}
