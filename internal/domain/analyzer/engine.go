// Package analyzer turns titles into coverage reports: tokens, the dataset
// keywords each title contains, and their summed popularity.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/domain/synth"
	"github.com/corey/titlelab/internal/domain/title"
	"github.com/corey/titlelab/internal/ports"
)

// ErrEmptyTitle is returned when a title is blank after trimming.
var ErrEmptyTitle = errors.New("title is empty")

// Mode selects how matched keywords are produced.
type Mode string

const (
	// ModeSubstring matches dataset keywords contained in the title.
	ModeSubstring Mode = "substring"
	// ModeSynthetic fabricates random matches, like a demo backend.
	ModeSynthetic Mode = "synthetic"
)

// DefaultSyntheticCount is the number of rows a synthetic analysis returns.
const DefaultSyntheticCount = 50

// Latency simulates backend round trips. Zero durations disable the wait.
type Latency struct {
	Upload    time.Duration `yaml:"upload" json:"upload"`
	Recommend time.Duration `yaml:"recommend" json:"recommend"`
	Analyze   time.Duration `yaml:"analyze" json:"analyze"`
}

// Options configures an Engine. Zero values select substring mode, no
// latency, a randomly seeded generator and a linear keyword scan.
type Options struct {
	Mode           Mode
	SyntheticCount int
	Latency        Latency
	Seed           uint64

	// NewPatternMatcher, when set, backs substring matching with a
	// multi-pattern automaton instead of one scan per keyword.
	NewPatternMatcher func() ports.PatternMatcher

	Now func() time.Time
}

// Engine analyzes titles against the loaded dataset. Safe for concurrent
// use; Load swaps the dataset atomically.
type Engine struct {
	opts Options
	gen  *synth.Generator

	mu       sync.RWMutex
	keywords []ports.Keyword
	vocab    *title.Vocabulary
	matcher  *keyword.Matcher
}

// New creates an engine loaded with the sample dataset.
func New(opts Options) *Engine {
	if opts.Mode == "" {
		opts.Mode = ModeSubstring
	}
	if opts.SyntheticCount <= 0 {
		opts.SyntheticCount = DefaultSyntheticCount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{opts: opts, gen: synth.New(opts.Seed)}
	e.swap(keyword.Sample())
	return e
}

// Mode returns the engine's match mode.
func (e *Engine) Mode() Mode { return e.opts.Mode }

// Load replaces the dataset the engine matches against. The upload latency
// is observed first, so a cancelled context leaves the old dataset active.
func (e *Engine) Load(ctx context.Context, keywords []ports.Keyword) error {
	if err := wait(ctx, e.opts.Latency.Upload); err != nil {
		return err
	}
	e.swap(keywords)
	return nil
}

// Use replaces the dataset immediately, skipping the upload latency. Used
// when restoring persisted state.
func (e *Engine) Use(keywords []ports.Keyword) { e.swap(keywords) }

// swap installs keywords. The vocabulary always keeps the sample texts so
// titles tokenize the same way whichever dataset is active.
func (e *Engine) swap(keywords []ports.Keyword) {
	texts := keyword.Texts(keyword.Sample())
	texts = append(texts, keyword.Texts(keywords)...)
	vocab := title.DefaultVocabulary(texts)

	var m *keyword.Matcher
	if e.opts.NewPatternMatcher != nil {
		m = keyword.NewMatcher(e.opts.NewPatternMatcher(), keywords)
	}

	e.mu.Lock()
	e.keywords = keywords
	e.vocab = vocab
	e.matcher = m
	e.mu.Unlock()
}

// Keywords returns the loaded dataset.
func (e *Engine) Keywords() []ports.Keyword {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.keywords
}

// Tokenize splits t with the engine's vocabulary.
func (e *Engine) Tokenize(t string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vocab.Tokenize(t)
}

// Analyze reports coverage for a user-entered title. The result is tagged as
// a custom analysis with a fresh id.
func (e *Engine) Analyze(ctx context.Context, t string) (*ports.TitleAnalysis, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return nil, ErrEmptyTitle
	}
	if err := wait(ctx, e.opts.Latency.Analyze); err != nil {
		return nil, err
	}

	var matched []ports.Keyword
	if e.opts.Mode == ModeSynthetic {
		matched = e.gen.ForTitle(t, e.opts.SyntheticCount)
	} else {
		matched = e.match(t)
	}
	return e.report(Candidate{
		ID:    "custom-" + uuid.NewString(),
		Title: t,
		Group: ports.GroupOther,
		Tag:   CustomTag,
	}, matched), nil
}

// Recommend reports coverage for every catalog title, in catalog order.
func (e *Engine) Recommend(ctx context.Context) ([]ports.TitleAnalysis, error) {
	if err := wait(ctx, e.opts.Latency.Recommend); err != nil {
		return nil, err
	}
	out := make([]ports.TitleAnalysis, 0, len(Catalog))
	for _, c := range Catalog {
		var matched []ports.Keyword
		if e.opts.Mode == ModeSynthetic {
			matched = e.gen.Large(e.opts.SyntheticCount)
		} else {
			matched = e.match(c.Title)
		}
		out = append(out, *e.report(c, matched))
	}
	return out, nil
}

// Filtered is an analysis' matches narrowed to the selected tokens.
type Filtered struct {
	Tokens   []string        `json:"tokens"`
	Keywords []ports.Keyword `json:"keywords"`
	Count    int             `json:"count"`
	Total    int             `json:"total"`
}

// Filter narrows a's matched keywords to those containing any of tokens.
// With no tokens every match is kept.
func Filter(a *ports.TitleAnalysis, tokens []string) Filtered {
	kws := keyword.FilterByTokens(a.Matched, tokens)
	return Filtered{
		Tokens:   tokens,
		Keywords: kws,
		Count:    len(kws),
		Total:    len(a.Matched),
	}
}

func (e *Engine) match(t string) []ports.Keyword {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.matcher != nil {
		return e.matcher.Match(t)
	}
	return keyword.Match(t, e.keywords)
}

func (e *Engine) report(c Candidate, matched []ports.Keyword) *ports.TitleAnalysis {
	cov := keyword.Aggregate(matched)
	return &ports.TitleAnalysis{
		ID:            c.ID,
		Title:         c.Title,
		Tokens:        e.Tokenize(c.Title),
		Matched:       matched,
		PopularityMin: cov.Min,
		PopularityMax: cov.Max,
		Timestamp:     e.opts.Now().UnixMilli(),
		Group:         c.Group,
		Tag:           c.Tag,
		Metrics:       title.Measure(c.Title),
	}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("simulated latency: %w", ctx.Err())
	}
}
