package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AppQueries provides access to app state for server handlers.
// Thread safety is the implementor's responsibility.
type AppQueries interface {
	Health() HealthResult
	Keywords(tokens []string, limit int) KeywordsResult
	Import(ctx context.Context, path string) (ImportResult, error)
	Analyze(ctx context.Context, title string, tokens []string) (AnalyzeResult, error)
	Recommend(ctx context.Context) (RecommendResult, error)
	Filter(id string, tokens []string) (FilterResult, error)
	History() HistoryResult
	DeleteHistory(id string) (bool, error)
	WipeProject() error
}

// Server is the daemon that listens on a Unix socket and serves requests.
type Server struct {
	queries  AppQueries
	log      *zap.Logger
	listener net.Listener
	sockPath string
	started  time.Time

	ctx    context.Context // cancelled on Stop; bounds in-flight requests
	cancel context.CancelFunc

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server answering from queries.
// A nil logger disables logging.
func NewServer(sockPath string, queries AppQueries, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		queries:    queries,
		log:        logger.Named("socket"),
		sockPath:   sockPath,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first: if the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	// Handle stale socket
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket: remove it
		s.log.Info("removing stale socket", zap.String("path", s.sockPath))
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent: safe to call multiple times (e.g., after remote shutdown + signal).
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received. The daemon's main goroutine should select on this alongside
// OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		start := time.Now()
		resp := s.handleRequest(req)
		s.log.Debug("request",
			zap.String("method", req.Method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("error", resp.Error != ""))
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodHealth:
		return s.handleHealth(req)
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	}

	if s.queries == nil {
		return Response{ID: req.ID, Error: fmt.Sprintf("%s not available", req.Method)}
	}

	switch req.Method {
	case MethodKeywords:
		var p KeywordsParams
		if err := decodeParams(req, &p); err != nil {
			return Response{ID: req.ID, Error: "invalid keywords params"}
		}
		return Response{ID: req.ID, Result: s.queries.Keywords(p.Tokens, p.Limit)}

	case MethodImport:
		var p ImportParams
		if err := decodeParams(req, &p); err != nil || p.Path == "" {
			return Response{ID: req.ID, Error: "invalid import params"}
		}
		return reply(req, func() (interface{}, error) { return s.queries.Import(s.ctx, p.Path) })

	case MethodAnalyze:
		var p AnalyzeParams
		if err := decodeParams(req, &p); err != nil {
			return Response{ID: req.ID, Error: "invalid analyze params"}
		}
		return reply(req, func() (interface{}, error) { return s.queries.Analyze(s.ctx, p.Title, p.Tokens) })

	case MethodRecommend:
		return reply(req, func() (interface{}, error) { return s.queries.Recommend(s.ctx) })

	case MethodFilter:
		var p FilterParams
		if err := decodeParams(req, &p); err != nil || p.ID == "" {
			return Response{ID: req.ID, Error: "invalid filter params"}
		}
		return reply(req, func() (interface{}, error) { return s.queries.Filter(p.ID, p.Tokens) })

	case MethodHistory:
		return Response{ID: req.ID, Result: s.queries.History()}

	case MethodHistoryDelete:
		var p HistoryDeleteParams
		if err := decodeParams(req, &p); err != nil || p.ID == "" {
			return Response{ID: req.ID, Error: "invalid history_delete params"}
		}
		return reply(req, func() (interface{}, error) {
			ok, err := s.queries.DeleteHistory(p.ID)
			return HistoryDeleteResult{Deleted: ok}, err
		})

	case MethodWipe:
		if err := s.queries.WipeProject(); err != nil {
			return Response{ID: req.ID, Error: err.Error()}
		}
		return Response{ID: req.ID, Result: struct{}{}}

	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

func (s *Server) handleHealth(req Request) Response {
	var result HealthResult
	if s.queries != nil {
		result = s.queries.Health()
	}
	result.Status = "ok"
	result.Uptime = time.Since(s.started).Round(time.Second).String()
	return Response{ID: req.ID, Result: result}
}

// decodeParams re-marshals the generic params into target.
func decodeParams(req Request, target interface{}) error {
	if req.Params == nil {
		return nil
	}
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}
	return json.Unmarshal(paramsJSON, target)
}

func reply(req Request, fn func() (interface{}, error)) Response {
	result, err := fn()
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Warn("marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
