package discovery

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

const base = "https://archives.example.org/5/cri/index.html"

func TestSections(t *testing.T) {
	d := New(Config{})

	t.Run("no matching anchors", func(t *testing.T) {
		body := `<html><body><a href="budget.pdf">Loi de finances</a><a href="/x">BUMIDOM</a></body></html>`
		links, err := d.Sections([]byte(body), base, "leg5")
		require.NoError(t, err)
		require.Empty(t, links)
	})

	t.Run("empty body", func(t *testing.T) {
		links, err := d.Sections(nil, base, "leg5")
		require.NoError(t, err)
		require.Empty(t, links)
	})

	t.Run("relative links resolve against base", func(t *testing.T) {
		body := `<a href="1965/seance-12.pdf">Débat BUMIDOM</a>
<a href="/5/qst/q-1.PDF">Migration des Antilles</a>
<a href="../../4/cri/old.pdf#page=2">Travailleurs d'outre-mer</a>`
		links, err := d.Sections([]byte(body), base, "leg5")
		require.NoError(t, err)
		require.Len(t, links, 3)
		require.Equal(t, "https://archives.example.org/5/cri/1965/seance-12.pdf", links[0].URL)
		require.Equal(t, "https://archives.example.org/5/qst/q-1.PDF", links[1].URL)
		require.Equal(t, "https://archives.example.org/4/cri/old.pdf", links[2].URL)
		for _, l := range links {
			require.True(t, strings.HasPrefix(l.URL, "https://"))
			require.Equal(t, "leg5", l.Source)
			require.Equal(t, crawler.KindDocument, l.Kind)
		}
		require.Equal(t, "Débat BUMIDOM", links[0].Title)
	})

	t.Run("pdf anchor text with html url", func(t *testing.T) {
		body := `<a href="download?id=7">bumidom-rapport.pdf</a>`
		links, err := d.Sections([]byte(body), base, "leg5")
		require.NoError(t, err)
		require.Len(t, links, 1)
		require.Equal(t, "https://archives.example.org/5/cri/download?id=7", links[0].URL)
	})

	t.Run("matching is case insensitive and ordered", func(t *testing.T) {
		body := `<a href="b.pdf">GUADELOUPE</a><a href="a.pdf">martinique</a>`
		links, err := d.Sections([]byte(body), base, "leg5")
		require.NoError(t, err)
		require.Len(t, links, 2)
		require.Equal(t, "GUADELOUPE", links[0].Title)
		require.Equal(t, "martinique", links[1].Title)
	})

	t.Run("caps links per page", func(t *testing.T) {
		small := New(Config{MaxLinksPerPage: 2})
		var sb strings.Builder
		for i := 0; i < 5; i++ {
			fmt.Fprintf(&sb, `<a href="d%d.pdf">BUMIDOM %d</a>`, i, i)
		}
		links, err := small.Sections([]byte(sb.String()), base, "leg5")
		require.NoError(t, err)
		require.Len(t, links, 2)
		require.Equal(t, "BUMIDOM 0", links[0].Title)
	})

	t.Run("invalid base url", func(t *testing.T) {
		_, err := d.Sections([]byte(`<a href="a.pdf">bumidom</a>`), "://bad", "leg5")
		var pe *crawler.ParseError
		require.True(t, errors.As(err, &pe))
	})
}

func TestQuestions(t *testing.T) {
	d := New(Config{})
	body := `<ul>
<li><a href="q/101.pdf">Question écrite sur le BUMIDOM</a></li>
<li><a href="q/102.html">Question sur le BUMIDOM (html)</a></li>
<li><a href="q/103.pdf">Question sur la viticulture</a></li>
<li><a href="q/104.pdf">Départements d'outre-mer : emploi</a></li>
</ul>`
	links, err := d.Questions([]byte(body), "https://archives.example.org/3/qst/", 3)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, "https://archives.example.org/3/qst/q/101.pdf", links[0].URL)
	require.Equal(t, "https://archives.example.org/3/qst/q/104.pdf", links[1].URL)
	for _, l := range links {
		require.Equal(t, crawler.KindWrittenQuestion, l.Kind)
		require.Equal(t, 3, l.Legislature)
		require.Equal(t, "questions-leg3", l.Source)
	}
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile(Config{LinkPatterns: []string{"("}})
	require.Error(t, err)
	_, err = Compile(Config{QuestionPattern: "["})
	require.Error(t, err)
}

func TestEmptyAnchorTextUsesFilename(t *testing.T) {
	d := New(Config{LinkPatterns: []string{`.*`}})
	links, err := d.Sections([]byte(`<a href="docs/rapport-1970.pdf"></a>`), base, "leg5")
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "rapport-1970.pdf", links[0].Title)
}
