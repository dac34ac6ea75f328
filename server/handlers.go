package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/viant/vecdb/search"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
	"github.com/viant/vecdb/writer"
)

const maxBodyBytes = 10 << 20

var distanceRange = map[string]float64{"min": vector.MinDistance, "max": vector.MaxDistance}

type insertRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type insertResponse struct {
	Success            bool   `json:"success"`
	ID                 string `json:"id"`
	EmbeddingDimension int    `json:"embeddingDimension"`
	Changes            int64  `json:"changes"`
}

type insertBatchRequest struct {
	Items []writer.Item `json:"items"`
}

type insertBatchResponse struct {
	Success  bool  `json:"success"`
	Inserted int   `json:"inserted"`
	Changes  int64 `json:"changes"`
}

type searchRequest struct {
	QueryText      string     `json:"queryText"`
	QueryEmbedding []*float64 `json:"queryEmbedding"`
	TopK           *int       `json:"topK"`
	Threshold      *float64   `json:"threshold"`
}

type searchMetadata struct {
	QueryMethod        string  `json:"queryMethod"`
	ResultCount        int     `json:"resultCount"`
	TopK               int     `json:"topK"`
	Threshold          float64 `json:"threshold"`
	DistanceRange      string  `json:"distanceRange"`
	EmbeddingModel     string  `json:"embeddingModel"`
	EmbeddingDimension int     `json:"embeddingDimension"`
}

type searchResponse struct {
	Results  []vector.Match `json:"results"`
	Metadata searchMetadata `json:"metadata"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return vecerr.Validation("decode", "invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, "")
		return
	}
	if req.ID == "" || req.Text == "" {
		writeError(w, vecerr.Validation("insert", "both 'id' and 'text' are required"), "")
		return
	}
	res, err := s.svc.Writer.Insert(r.Context(), writer.Item{ID: req.ID, Text: req.Text})
	if err != nil {
		writeError(w, err, "Insert operation failed")
		return
	}
	writeJSON(w, http.StatusOK, insertResponse{Success: true, ID: res.ID, EmbeddingDimension: res.Dimension, Changes: res.Changes})
}

func (s *Server) handleInsertBatch(w http.ResponseWriter, r *http.Request) {
	var req insertBatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, "")
		return
	}
	res, err := s.svc.Writer.InsertBatch(r.Context(), req.Items)
	if err != nil {
		writeError(w, err, "Batch insert operation failed")
		return
	}
	writeJSON(w, http.StatusOK, insertBatchResponse{Success: true, Inserted: res.Inserted, Changes: res.Changes})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, "")
		return
	}
	q := search.Query{Text: req.QueryText, TopK: req.TopK, Threshold: req.Threshold}
	if req.QueryEmbedding != nil {
		q.Vector = make([]float32, len(req.QueryEmbedding))
		for i, v := range req.QueryEmbedding {
			if v == nil {
				writeError(w, vecerr.Validation("search", "all embedding values must be valid numbers"), "")
				return
			}
			q.Vector[i] = float32(*v)
		}
	}
	res, err := s.svc.Search.Search(r.Context(), q)
	if err != nil {
		writeError(w, err, "Search operation failed")
		return
	}
	method := res.Function
	if method == "" {
		method = res.Method
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results: res.Matches,
		Metadata: searchMetadata{
			QueryMethod:        method,
			ResultCount:        len(res.Matches),
			TopK:               res.TopK,
			Threshold:          res.Threshold,
			DistanceRange:      fmt.Sprintf("%g (identical) to %g (opposite)", vector.MinDistance, vector.MaxDistance),
			EmbeddingModel:     s.svc.Embedder.Model(),
			EmbeddingDimension: vector.Dimension,
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Store.Stats(r.Context())
	if err != nil {
		writeError(w, err, "Failed to retrieve statistics")
		return
	}
	s.svc.Metrics.SetRows(st.Count)
	writeJSON(w, http.StatusOK, map[string]any{
		"embeddings": map[string]any{
			"count":     st.Count,
			"avgSize":   int64(st.AvgBytes + 0.5),
			"totalSize": st.TotalBytes,
			"dimension": st.Dimension,
		},
		"database": map[string]any{
			"totalSize": st.DatabaseBytes,
			"model":     st.Model,
		},
		"limits": map[string]any{
			"maxFallbackRows": s.svc.Search.MaxFallbackRows(),
			"maxTopK":         search.MaxTopK,
			"distanceRange":   distanceRange,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, h)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Vector Database API",
		"version": Version,
		"endpoints": map[string]string{
			"insert":      "POST /insert",
			"insertBatch": "POST /insert-batch",
			"search":      "POST /search",
			"stats":       "GET /stats",
			"health":      "GET /health",
		},
		"configuration": map[string]any{
			"model":          s.svc.Embedder.Model(),
			"dimension":      vector.Dimension,
			"distanceMetric": "cosine",
			"distanceRange":  distanceRange,
		},
	})
}
