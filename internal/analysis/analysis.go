// Package analysis scans document text for topic keywords and extracts the
// surrounding context windows a reviewer needs to judge relevance.
package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

// DefaultPatterns is the topic vocabulary. Wildcards let several words appear
// with arbitrary text between them on the same line.
var DefaultPatterns = []string{
	`bumidom`,
	`bureau.*?migration.*?outre-mer`,
	`migration.*?antillaise`,
	`migration.*?réunionnaise`,
	`départements? d'outre-mer`,
	`dom-tom`,
	`antilles`,
	`guadeloupe`,
	`martinique`,
	`la réunion`,
	`guyane`,
	`travailleurs.*?outre-mer`,
	`émigration`,
}

const (
	defaultContextRadius         = 100
	defaultMaxContexts           = 5
	defaultMaxContextsPerPattern = 3
)

var (
	wildcards = regexp.MustCompile(`\.[*+]\??|\\b`)
	optional  = strings.NewReplacer("?", "")
	newlines  = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// Config tunes the analyzer. Zero values fall back to defaults.
type Config struct {
	Patterns              []string
	ContextRadius         int
	MaxContexts           int
	MaxContextsPerPattern int
}

type pattern struct {
	label string
	re    *regexp.Regexp
}

// Analyzer implements crawler.Analyzer. It holds no mutable state.
type Analyzer struct {
	patterns    []pattern
	radius      int
	maxContexts int
	perPattern  int
}

// New compiles cfg and panics on an invalid pattern.
func New(cfg Config) *Analyzer {
	a, err := Compile(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// Compile is New with an error return.
func Compile(cfg Config) (*Analyzer, error) {
	raw := cfg.Patterns
	if len(raw) == 0 {
		raw = DefaultPatterns
	}
	patterns := make([]pattern, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile topic pattern %q: %w", p, err)
		}
		patterns = append(patterns, pattern{label: Label(p), re: re})
	}
	return &Analyzer{
		patterns:    patterns,
		radius:      orDefault(cfg.ContextRadius, defaultContextRadius),
		maxContexts: orDefault(cfg.MaxContexts, defaultMaxContexts),
		perPattern:  orDefault(cfg.MaxContextsPerPattern, defaultMaxContextsPerPattern),
	}, nil
}

// Label turns a pattern into its human-readable keyword.
func Label(p string) string {
	return strings.Join(strings.Fields(optional.Replace(wildcards.ReplaceAllString(p, " "))), " ")
}

// Analyze never fails; text without matches yields a zero result.
func (a *Analyzer) Analyze(text string) crawler.AnalysisResult {
	lowered := strings.ToLower(text)
	result := crawler.AnalysisResult{
		Keywords: []string{},
		Contexts: []string{},
	}
	seen := make(map[string]struct{}, len(a.patterns))
	for _, p := range a.patterns {
		matches := p.re.FindAllStringIndex(lowered, -1)
		if len(matches) == 0 {
			continue
		}
		if _, ok := seen[p.label]; !ok {
			seen[p.label] = struct{}{}
			result.Keywords = append(result.Keywords, p.label)
		}
		result.MentionCount += len(matches)
		for i, m := range matches {
			if i >= a.perPattern || len(result.Contexts) >= a.maxContexts {
				break
			}
			result.Contexts = append(result.Contexts, a.window(lowered, m[0], m[1]))
		}
	}
	return result
}

// window returns the whole match plus radius runes on each side.
func (a *Analyzer) window(text string, start, end int) string {
	lo := start
	for n := 0; n < a.radius && lo > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for n := 0; n < a.radius && hi < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return strings.TrimSpace(newlines.Replace(text[lo:hi]))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
