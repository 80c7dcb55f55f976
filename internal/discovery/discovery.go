// Package discovery finds topic-relevant PDF links on archive listing pages.
package discovery

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

// DefaultLinkPatterns select listing anchors worth downloading.
var DefaultLinkPatterns = []string{
	`bumidom`,
	`outre-mer`,
	`migration`,
	`antilles`,
	`r[ée]union`,
	`guadeloupe`,
	`martinique`,
	`guyane`,
	`\bdom\b`,
}

// DefaultQuestionPattern selects written question anchors.
const DefaultQuestionPattern = `bumidom|outre-mer|migration|d[ée]partements? d'outre`

const defaultMaxLinksPerPage = 50

// Config controls which anchors are kept.
type Config struct {
	LinkPatterns    []string
	QuestionPattern string
	MaxLinksPerPage int
}

// Discoverer implements crawler.Discoverer with goquery.
type Discoverer struct {
	linkPatterns    []*regexp.Regexp
	questionPattern *regexp.Regexp
	maxLinks        int
}

// New compiles the configured patterns and panics on an invalid one.
// Empty fields fall back to defaults.
func New(cfg Config) *Discoverer {
	d, err := Compile(cfg)
	if err != nil {
		panic(err)
	}
	return d
}

// Compile is New with an error return.
func Compile(cfg Config) (*Discoverer, error) {
	patterns := cfg.LinkPatterns
	if len(patterns) == 0 {
		patterns = DefaultLinkPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile link pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	qp := cfg.QuestionPattern
	if qp == "" {
		qp = DefaultQuestionPattern
	}
	question, err := regexp.Compile("(?i)" + qp)
	if err != nil {
		return nil, fmt.Errorf("compile question pattern %q: %w", qp, err)
	}
	maxLinks := cfg.MaxLinksPerPage
	if maxLinks <= 0 {
		maxLinks = defaultMaxLinksPerPage
	}
	return &Discoverer{
		linkPatterns:    compiled,
		questionPattern: question,
		maxLinks:        maxLinks,
	}, nil
}

// Sections returns PDF links on a section listing whose anchor text matches
// a link pattern, in page order.
func (d *Discoverer) Sections(body []byte, baseURL string, source string) ([]crawler.LinkCandidate, error) {
	return d.collect(body, baseURL, d.matchesTopic, func(a anchor) crawler.LinkCandidate {
		return crawler.LinkCandidate{
			URL:    a.url,
			Title:  a.title(),
			Source: source,
			Kind:   crawler.KindDocument,
		}
	})
}

// Questions returns PDF links on a written questions index whose anchor text
// matches the question pattern.
func (d *Discoverer) Questions(body []byte, baseURL string, legislature int) ([]crawler.LinkCandidate, error) {
	source := fmt.Sprintf("questions-leg%d", legislature)
	return d.collect(body, baseURL, d.questionPattern.MatchString, func(a anchor) crawler.LinkCandidate {
		return crawler.LinkCandidate{
			URL:         a.url,
			Title:       a.title(),
			Source:      source,
			Kind:        crawler.KindWrittenQuestion,
			Legislature: legislature,
		}
	})
}

type anchor struct {
	text string
	url  string
	path string
}

func (a anchor) title() string {
	if a.text != "" {
		return a.text
	}
	return path.Base(a.path)
}

func (a anchor) isPDF() bool {
	return strings.HasSuffix(strings.ToLower(a.text), ".pdf") ||
		strings.HasSuffix(strings.ToLower(a.path), ".pdf")
}

func (d *Discoverer) collect(
	body []byte,
	baseURL string,
	match func(string) bool,
	build func(anchor) crawler.LinkCandidate,
) ([]crawler.LinkCandidate, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &crawler.ParseError{URL: baseURL, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &crawler.ParseError{URL: baseURL, Err: err}
	}

	out := make([]crawler.LinkCandidate, 0)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		a := anchor{
			text: strings.Join(strings.Fields(s.Text()), " "),
			url:  resolved.String(),
			path: resolved.Path,
		}
		if !a.isPDF() || !match(a.text) {
			return true
		}
		out = append(out, build(a))
		return len(out) < d.maxLinks
	})
	return out, nil
}

func (d *Discoverer) matchesTopic(text string) bool {
	for _, re := range d.linkPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
