package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/corey/titlelab/internal/adapters/socket"
	"github.com/corey/titlelab/internal/app"
	"github.com/corey/titlelab/internal/domain/history"
)

// backend is what the CLI commands need. *socket.Client satisfies it when a
// daemon is running; localBackend answers in-process otherwise.
type backend interface {
	Health() (*socket.HealthResult, error)
	Keywords(tokens []string, limit int) (*socket.KeywordsResult, error)
	Import(path string) (*socket.ImportResult, error)
	Analyze(title string, tokens []string) (*socket.AnalyzeResult, error)
	Recommend() (*socket.RecommendResult, error)
	Filter(id string, tokens []string) (*socket.FilterResult, error)
	History() (*socket.HistoryResult, error)
	DeleteHistory(id string) (bool, error)
	Wipe() error
}

// connect returns the daemon client if one is reachable, or an in-process
// app over the same workspace database. The returned func releases it.
func connect(root string) (backend, func(), error) {
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		return client, func() {}, nil
	}

	cfg, err := app.LoadConfig(root)
	if err != nil {
		return nil, nil, err
	}
	cfg.Inbox.Enabled = false
	a, err := app.New(cfg, nil)
	if err != nil {
		if isDBLockError(err) {
			return nil, nil, fmt.Errorf("%s", diagnoseDBLock(root))
		}
		return nil, nil, err
	}
	return localBackend{a}, func() { a.Stop() }, nil
}

// localBackend adapts an in-process App to the client's call shapes.
type localBackend struct{ a *app.App }

func (l localBackend) Health() (*socket.HealthResult, error) {
	h := l.a.Health()
	h.Status = "offline"
	return &h, nil
}

func (l localBackend) Keywords(tokens []string, limit int) (*socket.KeywordsResult, error) {
	res := l.a.Keywords(tokens, limit)
	return &res, nil
}

func (l localBackend) Import(path string) (*socket.ImportResult, error) {
	res, err := l.a.Import(context.Background(), path)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (l localBackend) Analyze(title string, tokens []string) (*socket.AnalyzeResult, error) {
	res, err := l.a.Analyze(context.Background(), title, tokens)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (l localBackend) Recommend() (*socket.RecommendResult, error) {
	res, err := l.a.Recommend(context.Background())
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Filter builds the recommendation board first when id is not in history,
// since an in-process app has no board from an earlier run.
func (l localBackend) Filter(id string, tokens []string) (*socket.FilterResult, error) {
	res, err := l.a.Filter(id, tokens)
	if errors.Is(err, history.ErrNotFound) {
		if _, rerr := l.a.Recommend(context.Background()); rerr != nil {
			return nil, rerr
		}
		res, err = l.a.Filter(id, tokens)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (l localBackend) History() (*socket.HistoryResult, error) {
	res := l.a.History()
	return &res, nil
}

func (l localBackend) DeleteHistory(id string) (bool, error) {
	return l.a.DeleteHistory(id)
}

func (l localBackend) Wipe() error {
	return l.a.WipeProject()
}
