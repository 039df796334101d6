// Package pipeline runs the title assistant flow as background jobs: import a
// keyword export, narrow it to the core keywords, generate candidate titles,
// and check them against the length limit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/ports"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// ErrInvalidInput wraps input validation failures.
var ErrInvalidInput = errors.New("invalid input")

// Status is a job's lifecycle state.
type Status string

// A job exists only once submitted, so it starts in StatusProcessing; the
// dashboard shows "idle" while no job is selected.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Steps names the stages a job moves through, in order.
var Steps = []string{"数据预处理", "关键词筛选", "维度识别", "标题生成", "标题验证", "输出格式化"}

const (
	stepPreprocess = iota
	stepFilter
	stepDimensions
	stepGenerate
	stepValidate
	stepFormat
)

// Input is what a user submits to start a job.
type Input struct {
	FileName      string `json:"file_name" validate:"required"`
	Data          []byte `json:"-"`
	CoreKeywords  string `json:"core_keywords" validate:"required"`
	SellingPoints string `json:"selling_points,omitempty"`
	BrandName     string `json:"brand_name,omitempty"`
}

// Result is a completed job's output.
type Result struct {
	Dataset         *ports.Dataset        `json:"dataset"`
	Focus           []ports.Keyword       `json:"focus_keywords"`
	Dimensions      map[ports.Group]int   `json:"dimensions"`
	Recommendations []ports.TitleAnalysis `json:"recommendations"`
	Overlength      []string              `json:"overlength,omitempty"`
}

// Job is a snapshot of one run.
type Job struct {
	ID        string    `json:"id"`
	Input     Input     `json:"input"`
	Status    Status    `json:"status"`
	Step      int       `json:"step"`
	StepName  string    `json:"step_name"`
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend does the work behind the import and generation steps.
type Backend interface {
	Import(ctx context.Context, name string, data []byte) (*ports.Dataset, error)
	Recommend(ctx context.Context) ([]ports.TitleAnalysis, error)
}

// Runner tracks jobs in memory and runs each in its own goroutine.
type Runner struct {
	backend   Backend
	stepDelay time.Duration
	validate  *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[string]*Job
	closed bool
}

// NewRunner creates a runner. stepDelay pauses between steps so progress is
// observable; zero runs straight through.
func NewRunner(backend Backend, stepDelay time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		backend:   backend,
		stepDelay: stepDelay,
		validate:  validator.New(),
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]*Job),
	}
}

// Submit validates in and starts a job. The returned snapshot is in the
// processing state at step 0.
func (r *Runner) Submit(in Input) (Job, error) {
	if err := r.validate.Struct(in); err != nil {
		return Job{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Input:     in,
		Status:    StatusProcessing,
		StepName:  Steps[0],
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Only the running goroutine holds the upload; snapshots never do.
	job.Input.Data = nil

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Job{}, fmt.Errorf("runner closed: %w", context.Canceled)
	}
	r.jobs[job.ID] = job
	snap := *job
	r.wg.Add(1) // under mu so Close cannot be waiting yet
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.run(job.ID, in)
	}()
	return snap, nil
}

// Get returns a snapshot of the job with id.
func (r *Runner) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *job, nil
}

// List returns snapshots of every job, oldest first.
func (r *Runner) List() []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Close cancels running jobs and waits for them to stop. Safe to call
// multiple times.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run(id string, in Input) {
	res := &Result{}
	for i := range Steps {
		r.update(id, func(j *Job) {
			j.Step = i
			j.StepName = Steps[i]
		})
		if err := r.step(i, in, res); err != nil {
			r.update(id, func(j *Job) {
				j.Status = StatusError
				j.Error = fmt.Sprintf("%s: %v", Steps[i], err)
			})
			return
		}
		if err := pause(r.ctx, r.stepDelay); err != nil {
			r.update(id, func(j *Job) {
				j.Status = StatusError
				j.Error = err.Error()
			})
			return
		}
	}
	r.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = res
	})
}

func (r *Runner) step(i int, in Input, res *Result) error {
	switch i {
	case stepPreprocess:
		ds, err := r.backend.Import(r.ctx, in.FileName, in.Data)
		if err != nil {
			return err
		}
		if ds == nil {
			return errors.New("no keywords imported")
		}
		res.Dataset = ds
	case stepFilter:
		focus := keyword.FilterByTokens(res.Dataset.Keywords, SplitKeywords(in.CoreKeywords))
		res.Focus = append([]ports.Keyword(nil), focus...) // sorted later; must not alias the dataset
	case stepDimensions:
		res.Dimensions = make(map[ports.Group]int)
	case stepGenerate:
		recs, err := r.backend.Recommend(r.ctx)
		if err != nil {
			return err
		}
		res.Recommendations = recs
		for _, rec := range recs {
			res.Dimensions[rec.Group]++
		}
	case stepValidate:
		for _, rec := range res.Recommendations {
			if !rec.Metrics.Valid {
				res.Overlength = append(res.Overlength, rec.ID)
			}
		}
	case stepFormat:
		sort.SliceStable(res.Focus, func(a, b int) bool {
			return res.Focus[a].PopularityMin > res.Focus[b].PopularityMin
		})
	}
	return nil
}

func (r *Runner) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		fn(j)
		j.UpdatedAt = time.Now()
	}
}

// SplitKeywords splits a user-entered keyword list on whitespace and the
// usual ASCII and CJK separators.
func SplitKeywords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', ',', '，', '、', ';', '；', '|':
			return true
		}
		return false
	})
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
