package analysis

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeNoKeywords(t *testing.T) {
	a := New(Config{})
	res := a.Analyze("La séance est ouverte à quinze heures. Ordre du jour : loi de finances.")
	assert.Zero(t, res.MentionCount)
	assert.Empty(t, res.Keywords)
	assert.Empty(t, res.Contexts)

	empty := a.Analyze("")
	assert.Zero(t, empty.MentionCount)
	assert.Empty(t, empty.Contexts)
}

func TestAnalyzeMentions(t *testing.T) {
	a := New(Config{})
	text := "Intro text.\nThe BUMIDOM program in Martinique and Guadeloupe\nwas discussed. Later, BUMIDOM again."
	res := a.Analyze(text)

	require.GreaterOrEqual(t, res.MentionCount, 2)
	assert.Equal(t, 4, res.MentionCount)
	assert.Equal(t, []string{"bumidom", "guadeloupe", "martinique"}, res.Keywords)
	require.NotEmpty(t, res.Contexts)
	for _, c := range res.Contexts {
		assert.LessOrEqual(t, len(c), 2*defaultContextRadius+len("martinique"))
		assert.NotContains(t, c, "\n")
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := New(Config{})
	text := strings.Repeat("Le bureau pour la migration vers l'outre-mer. BUMIDOM. Antilles, Guyane.\n", 4)
	first := a.Analyze(text)
	second := a.Analyze(text)
	assert.Equal(t, first, second)
}

func TestAnalyzeContextCaps(t *testing.T) {
	a := New(Config{})
	text := strings.Repeat("bumidom martinique guadeloupe antilles guyane dom-tom ", 50)
	res := a.Analyze(text)
	assert.Len(t, res.Contexts, defaultMaxContexts)
	assert.Equal(t, 300, res.MentionCount)

	// per-pattern cap: only bumidom matches here, so at most three contexts
	only := a.Analyze(strings.Repeat("bumidom ", 10))
	assert.Len(t, only.Contexts, defaultMaxContextsPerPattern)
	assert.Equal(t, 10, only.MentionCount)
}

func TestAnalyzeContextsAlwaysBounded(t *testing.T) {
	a := New(Config{})
	for n := 0; n < 40; n += 7 {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "ligne %d BUMIDOM Réunion Martinique travailleurs de l'outre-mer\n", i)
		}
		res := a.Analyze(sb.String())
		assert.LessOrEqual(t, len(res.Contexts), defaultMaxContexts)
	}
}

func TestAnalyzeUsesMatchPosition(t *testing.T) {
	a := New(Config{Patterns: []string{"bumidom"}, ContextRadius: 5})
	text := "aaaaa bumidom bbbbb ccccc ddddd bumidom eeeee"
	res := a.Analyze(text)
	require.Len(t, res.Contexts, 2)
	assert.Equal(t, "aaaa bumidom bbbb", res.Contexts[0])
	assert.Equal(t, "dddd bumidom eeee", res.Contexts[1])
}

func TestAnalyzeFlexiblePattern(t *testing.T) {
	a := New(Config{})
	res := a.Analyze("Le Bureau pour le développement des migrations intéressant les départements d'Outre-Mer.")
	assert.Contains(t, res.Keywords, "bureau migration outre-mer")
	assert.Contains(t, res.Keywords, "départements d'outre-mer")
}

func TestAnalyzeLongMatchKeepsWholeSpan(t *testing.T) {
	a := New(Config{})
	text := "avant. le bureau pour le developpement " + strings.Repeat("x", 150) + " des migrations vers l'outre-mer. suite"
	res := a.Analyze(text)
	require.Contains(t, res.Keywords, "bureau migration outre-mer")
	require.NotEmpty(t, res.Contexts)
	assert.True(t, strings.HasPrefix(res.Contexts[0], "avant. le bureau"), res.Contexts[0])
	assert.True(t, strings.HasSuffix(res.Contexts[0], "l'outre-mer. suite"), res.Contexts[0])
}

func TestAnalyzeRadiusCountsRunes(t *testing.T) {
	a := New(Config{Patterns: []string{"bumidom"}})
	accents := strings.Repeat("é", 150)
	res := a.Analyze(accents + " bumidom " + accents)
	require.Len(t, res.Contexts, 1)

	side := strings.Repeat("é", defaultContextRadius-1)
	assert.Equal(t, side+" bumidom "+side, res.Contexts[0])
	assert.Equal(t, 2*defaultContextRadius+len("bumidom"), utf8.RuneCountInString(res.Contexts[0]))
}

func TestAnalyzeOptionalPluralPattern(t *testing.T) {
	a := New(Config{})
	res := a.Analyze("Les départements d'outre-mer et le département d'outre-mer de la Guyane.")
	assert.Contains(t, res.Keywords, "départements d'outre-mer")
	assert.GreaterOrEqual(t, res.MentionCount, 3)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "bureau migration outre-mer", Label(`bureau.*?migration.*outre-mer`))
	assert.Equal(t, "dom", Label(`\bdom\b`))
	assert.Equal(t, "bumidom", Label("bumidom"))
	assert.Equal(t, "départements d'outre-mer", Label(`départements? d'outre-mer`))
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile(Config{Patterns: []string{"(unclosed"}})
	require.Error(t, err)
}
