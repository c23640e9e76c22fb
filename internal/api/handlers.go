// Package api serves the JSON endpoints used by the reader page.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/lexiqai/reader-gateway/internal/annotate"
	"github.com/lexiqai/reader-gateway/internal/locale"
	"github.com/lexiqai/reader-gateway/internal/observability"
)

const maxAnnotateBody = 1 << 20

// AnnotateRequest is the body of POST /annotate.
type AnnotateRequest struct {
	Text     string            `json:"text"`
	Entities []annotate.Entity `json:"entities"`
}

// AnnotateResponse is the reply to POST /annotate.
type AnnotateResponse struct {
	Segments []annotate.Segment `json:"segments"`
	Stats    annotate.Stats     `json:"stats"`
}

// Language is one entry of GET /languages.
type Language struct {
	Code   string `json:"code"`
	Locale string `json:"locale"`
}

// LanguagesResponse is the reply to GET /languages.
type LanguagesResponse struct {
	Default   string     `json:"default"`
	Languages []Language `json:"languages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// AnnotateHandler splits a passage into text and entity segments.
func AnnotateHandler() http.HandlerFunc {
	logger := observability.WithComponent("api")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		var req AnnotateRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnnotateBody))
		if err := dec.Decode(&req); err != nil {
			logger.Warn().Err(err).Msg("Invalid annotate request")
			observability.RecordAnnotate(false, 0, 0, 0)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		segments, stats := annotate.AnnotateWithStats(req.Text, req.Entities)
		observability.RecordAnnotate(true, len(segments), stats.Overlapping, stats.Empty)
		if stats.Dropped() > 0 {
			logger.Debug().
				Int("overlapping", stats.Overlapping).
				Int("empty", stats.Empty).
				Int("out_of_range", stats.OutOfRange).
				Msg("Dropped entities while annotating")
		}

		writeJSON(w, http.StatusOK, AnnotateResponse{Segments: segments, Stats: stats})
	}
}

// LanguagesHandler lists the languages the speech services understand.
func LanguagesHandler(defaultLocale string) http.HandlerFunc {
	resolver := locale.NewResolver(defaultLocale)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		codes := locale.Languages()
		resp := LanguagesResponse{
			Default:   resolver.Fallback(),
			Languages: make([]Language, 0, len(codes)),
		}
		for _, code := range codes {
			resp.Languages = append(resp.Languages, Language{Code: code, Locale: resolver.Resolve(code)})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
