package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/batchscore"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/metrics"
)

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "request body is not valid JSON")
		return
	}
	if req.Text == nil {
		metrics.RecordError("invalid_input")
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "text is required and must be a string")
		return
	}

	verdict, err := s.svc.Decide(r.Context(), *req.Text, req.Profile)
	if err != nil {
		status, kind := statusForError(err)
		s.writeError(w, r, status, kind, err.Error())
		return
	}

	s.writeJSON(w, r, http.StatusOK, classifyResponse{
		RequestID:   requestIDFrom(r.Context()),
		Label:       string(verdict.Label),
		Probability: verdict.Probability,
		Profile:     verdict.Profile,
		Threshold:   verdict.Threshold,
		CacheHit:    verdict.CacheHit,
	})
}

func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "request body is not valid JSON")
		return
	}
	if req.Texts == nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "texts is required")
		return
	}
	if len(req.Texts) > s.maxBatch {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "batch_too_large",
			fmt.Sprintf("batch has %d texts, limit is %d", len(req.Texts), s.maxBatch))
		return
	}

	// Null items never reach the service; they fail their own slot while
	// the rest of the batch is classified positionally.
	valid := make([]string, 0, len(req.Texts))
	positions := make([]int, 0, len(req.Texts))
	for i, t := range req.Texts {
		if t != nil {
			valid = append(valid, *t)
			positions = append(positions, i)
		}
	}

	results, err := s.svc.DecideBatch(r.Context(), valid, req.Profile)
	if err != nil {
		status, kind := statusForError(err)
		s.writeError(w, r, status, kind, err.Error())
		return
	}

	items := make([]batchItem, len(req.Texts))
	for i := range items {
		items[i] = batchItem{
			Error:     "text must be a string",
			ErrorKind: "invalid_input",
		}
	}
	for k, res := range results {
		i := positions[k]
		if res.Err != nil {
			_, kind := statusForError(res.Err)
			items[i] = batchItem{Error: res.Err.Error(), ErrorKind: kind}
			continue
		}
		p := res.Verdict.Probability
		items[i] = batchItem{
			Label:       string(res.Verdict.Label),
			Probability: &p,
			CacheHit:    res.Verdict.CacheHit,
		}
	}
	for i := 0; i < len(req.Texts)-len(valid); i++ {
		metrics.RecordError("invalid_input")
	}

	profile, threshold := s.batchProfile(req.Profile, results)
	s.writeJSON(w, r, http.StatusOK, batchResponse{
		RequestID: requestIDFrom(r.Context()),
		Profile:   profile,
		Threshold: threshold,
		Size:      len(items),
		Items:     items,
	})
}

// batchProfile reports the resolved profile of a batch. Verdicts carry it
// already; an all-invalid batch falls back to resolving the name again.
func (s *Server) batchProfile(requested string, results []core.BatchResult) (string, float64) {
	for _, res := range results {
		if res.Verdict != nil {
			return res.Verdict.Profile, res.Verdict.Threshold
		}
	}
	name := requested
	if strings.TrimSpace(name) == "" {
		name = s.svc.DefaultProfile()
	}
	if p, err := core.LookupProfile(name); err == nil {
		return p.Name, p.Threshold
	}
	return name, 0
}

func (s *Server) handleClassifyFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "request is not a valid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "file field is required")
		return
	}
	defer file.Close()

	profile := r.FormValue("profile")
	if profile != "" {
		if _, err := core.LookupProfile(profile); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "unknown_profile", err.Error())
			return
		}
	}

	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".txt" {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input",
			fmt.Sprintf("unsupported file type %q, want .csv or .txt", ext))
		return
	}

	opts := batchscore.Options{
		Profile:    profile,
		TextColumn: r.FormValue("text_column"),
		Encoding:   batchscore.EncodingAuto,
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "scored_"+strings.TrimSuffix(name, ext)+".csv"))

	var stats *batchscore.Stats
	if ext == ".csv" {
		stats, err = s.runner.ScoreCSV(r.Context(), file, w, opts)
	} else {
		stats, err = s.runner.ScoreLines(r.Context(), file, w, opts)
	}
	if err != nil {
		// Headers are gone by now; all that is left is to log and cut the
		// stream short.
		s.logger.Error("File scoring aborted",
			zap.String("file", name),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err))
		return
	}

	s.logger.Info("Scored uploaded file",
		zap.String("file", name),
		zap.Int("rows", stats.Rows),
		zap.Int("spam", stats.Spam),
		zap.Int("failed", stats.Failed),
		zap.String("request_id", requestIDFrom(r.Context())))
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.svc.Profiles()
	infos := make([]profileInfo, len(profiles))
	for i, p := range profiles {
		infos[i] = profileInfo{Name: p.Name, Threshold: p.Threshold, Description: p.Description}
	}
	s.writeJSON(w, r, http.StatusOK, profilesResponse{
		RequestID:      requestIDFrom(r.Context()),
		DefaultProfile: s.svc.DefaultProfile(),
		Profiles:       infos,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:         "ok",
		DefaultProfile: s.svc.DefaultProfile(),
		Model: modelInfo{
			Path:      s.info.Path,
			SizeBytes: s.info.SizeBytes,
			SHA256:    s.info.SHA256,
			ModTime:   s.info.ModTime,
			LoadedAt:  s.info.LoadedAt,
		},
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func parseJSONRequest(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	s.writeJSON(w, r, status, errorResponse{
		RequestID: requestIDFrom(r.Context()),
		Error:     errorDetail{Kind: kind, Message: message},
	})
}

// statusForError maps pipeline errors onto HTTP statuses and stable error
// kinds for clients to match on.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnknownProfile):
		return http.StatusBadRequest, "unknown_profile"
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, core.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, core.ErrDimensionMismatch):
		return http.StatusInternalServerError, "dimension_mismatch"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
