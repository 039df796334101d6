// Package socket implements a JSON-over-Unix-socket protocol for the titlelab daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"

	"github.com/corey/titlelab/internal/ports"
)

// SocketPath returns the Unix socket path for a given workspace root.
// Format: /tmp/titlelab-{first12hex}.sock
func SocketPath(workspaceRoot string) string {
	abs, err := filepath.Abs(workspaceRoot)
	if err != nil {
		abs = workspaceRoot
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/titlelab-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodHealth        = "health"
	MethodShutdown      = "shutdown"
	MethodKeywords      = "keywords"
	MethodImport        = "import"
	MethodAnalyze       = "analyze"
	MethodRecommend     = "recommend"
	MethodFilter        = "filter"
	MethodHistory       = "history"
	MethodHistoryDelete = "history_delete"
	MethodWipe          = "wipe"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status       string `json:"status"`
	Dataset      string `json:"dataset"`
	Source       string `json:"source"`
	KeywordCount int    `json:"keyword_count"`
	HistoryCount int    `json:"history_count"`
	Mode         string `json:"mode"`
	WebURL       string `json:"web_url,omitempty"`
	Uptime       string `json:"uptime"`
}

// KeywordsParams is the params for a keywords request.
type KeywordsParams struct {
	Tokens []string `json:"tokens,omitempty"` // keep rows containing any token
	Limit  int      `json:"limit,omitempty"`  // 0 = all
}

// KeywordsResult is the result of a keywords request.
type KeywordsResult struct {
	Dataset  string          `json:"dataset"`
	Source   string          `json:"source"`
	Keywords []ports.Keyword `json:"keywords"`
	Count    int             `json:"count"` // rows returned
	Total    int             `json:"total"` // rows in the dataset
}

// ImportParams is the params for an import request.
type ImportParams struct {
	Path string `json:"path"`
}

// ImportResult is the result of an import request.
type ImportResult struct {
	Dataset  string `json:"dataset"`
	Source   string `json:"source"`
	Count    int    `json:"count"`
	Fallback bool   `json:"fallback"` // file unreadable, sample dataset loaded instead
	Warning  string `json:"warning,omitempty"`
}

// AnalyzeParams is the params for an analyze request.
type AnalyzeParams struct {
	Title  string   `json:"title"`
	Tokens []string `json:"tokens,omitempty"`
}

// AnalyzeResult is the result of an analyze request.
type AnalyzeResult struct {
	Analysis ports.TitleAnalysis `json:"analysis"`
	Filtered FilterResult        `json:"filtered"`
}

// RecommendResult is the result of a recommend request.
type RecommendResult struct {
	Titles []ports.TitleAnalysis `json:"titles"`
	Count  int                   `json:"count"`
}

// FilterParams is the params for a filter request. ID names a history entry
// or a recommended title.
type FilterParams struct {
	ID     string   `json:"id"`
	Tokens []string `json:"tokens,omitempty"`
}

// FilterResult is an analysis' matched keywords narrowed to selected tokens.
type FilterResult struct {
	ID       string          `json:"id,omitempty"`
	Tokens   []string        `json:"tokens"`
	Keywords []ports.Keyword `json:"keywords"`
	Count    int             `json:"count"`
	Total    int             `json:"total"`
}

// HistoryResult is the result of a history request.
type HistoryResult struct {
	Entries []ports.TitleAnalysis `json:"entries"`
	Count   int                   `json:"count"`
}

// HistoryDeleteParams is the params for a history_delete request.
type HistoryDeleteParams struct {
	ID string `json:"id"`
}

// HistoryDeleteResult is the result of a history_delete request.
type HistoryDeleteResult struct {
	Deleted bool `json:"deleted"`
}
