package web

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corey/titlelab/internal/adapters/socket"
	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/domain/pipeline"
	"github.com/corey/titlelab/internal/domain/title"
)

type analyzeRequest struct {
	Title  string   `json:"title" validate:"required,max=500"`
	Tokens []string `json:"tokens" validate:"max=50"`
}

type filterRequest struct {
	ID     string   `json:"id" validate:"required"`
	Tokens []string `json:"tokens" validate:"max=50"`
}

// highlightedKeyword pairs a row with its text split around selected tokens.
type highlightedKeyword struct {
	ID       int               `json:"id"`
	Segments []keyword.Segment `json:"segments"`
}

type filterResponse struct {
	socket.FilterResult
	Highlights []highlightedKeyword `json:"highlights"`
}

type lengthResponse struct {
	Title  string `json:"title"`
	Length int    `json:"length"`
	Max    int    `json:"max"`
	Valid  bool   `json:"valid"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result := s.api.Health()
	result.Status = "ok"
	result.Uptime = time.Since(s.started).Round(time.Second).String()
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, s.api.Keywords(title.Select(q["token"]).Tokens(), limit))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.api.ImportData(r.Context(), name, data)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	res, err := s.api.Recommend(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.api.Analyze(r.Context(), req.Title, title.Select(req.Tokens).Tokens())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := s.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Tokens arrive as the click sequence; a token clicked twice is off.
	tokens := title.Select(req.Tokens).Tokens()
	res, err := s.api.Filter(req.ID, tokens)
	if err != nil {
		respondErr(w, err)
		return
	}

	out := filterResponse{FilterResult: res, Highlights: make([]highlightedKeyword, 0, len(res.Keywords))}
	for _, k := range res.Keywords {
		out.Highlights = append(out.Highlights, highlightedKeyword{
			ID:       k.ID,
			Segments: keyword.Highlight(k.Text, tokens),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.api.History())
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := s.api.DeleteHistory(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, socket.HistoryDeleteResult{Deleted: ok})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.api.Jobs())
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.api.SubmitJob(pipeline.Input{
		FileName:      name,
		Data:          data,
		CoreKeywords:  r.FormValue("core_keywords"),
		SellingPoints: r.FormValue("selling_points"),
		BrandName:     r.FormValue("brand_name"),
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.api.Job(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleLength(w http.ResponseWriter, r *http.Request) {
	t := r.URL.Query().Get("title")
	m := title.Measure(t)
	respondJSON(w, http.StatusOK, lengthResponse{
		Title:  t,
		Length: m.Length,
		Max:    title.MaxVisualLength,
		Valid:  m.Valid,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	respondJSON(w, http.StatusOK, keyword.Preview(q.Get("title"), q.Get("keyword")))
}

// readUpload reads the multipart "file" field.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, err
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return hdr.Filename, data, nil
}
