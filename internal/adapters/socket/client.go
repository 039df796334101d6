package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Default timeouts. Import and recommend may include simulated latency and
// spreadsheet parsing, so they get more room.
const (
	defaultTimeout = 5 * time.Second
	longTimeout    = 60 * time.Second
)

// Client connects to the titlelab daemon over a Unix socket.
type Client struct {
	sockPath string
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.do(MethodHealth, nil, &result, defaultTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	return c.do(MethodShutdown, nil, nil, defaultTimeout)
}

// Keywords lists the active dataset, optionally narrowed to rows containing
// any of tokens.
func (c *Client) Keywords(tokens []string, limit int) (*KeywordsResult, error) {
	var result KeywordsResult
	if err := c.do(MethodKeywords, KeywordsParams{Tokens: tokens, Limit: limit}, &result, defaultTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// Import asks the daemon to load the export at path as the active dataset.
func (c *Client) Import(path string) (*ImportResult, error) {
	var result ImportResult
	if err := c.do(MethodImport, ImportParams{Path: path}, &result, longTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// Analyze analyzes a custom title and records it in the history.
func (c *Client) Analyze(title string, tokens []string) (*AnalyzeResult, error) {
	var result AnalyzeResult
	if err := c.do(MethodAnalyze, AnalyzeParams{Title: title, Tokens: tokens}, &result, longTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// Recommend fetches the candidate title board.
func (c *Client) Recommend() (*RecommendResult, error) {
	var result RecommendResult
	if err := c.do(MethodRecommend, nil, &result, longTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// Filter narrows the matches of a history entry or recommendation.
func (c *Client) Filter(id string, tokens []string) (*FilterResult, error) {
	var result FilterResult
	if err := c.do(MethodFilter, FilterParams{ID: id, Tokens: tokens}, &result, defaultTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// History lists custom analyses, newest first.
func (c *Client) History() (*HistoryResult, error) {
	var result HistoryResult
	if err := c.do(MethodHistory, nil, &result, defaultTimeout); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteHistory removes one history entry.
func (c *Client) DeleteHistory(id string) (bool, error) {
	var result HistoryDeleteResult
	if err := c.do(MethodHistoryDelete, HistoryDeleteParams{ID: id}, &result, defaultTimeout); err != nil {
		return false, err
	}
	return result.Deleted, nil
}

// Wipe sends a wipe request to clear all workspace data.
func (c *Client) Wipe() error {
	return c.do(MethodWipe, nil, nil, defaultTimeout)
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// do sends one request and decodes its result into out (may be nil).
func (c *Client) do(method string, params, out interface{}, timeout time.Duration) error {
	resp, err := c.callWithTimeout(Request{
		ID:     "1",
		Method: method,
		Params: params,
	}, timeout)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	// Re-marshal the generic result to decode into the typed struct
	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(resultJSON, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

func (c *Client) callWithTimeout(req Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	return &resp, nil
}
