package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/circuitdag/pkg/buildinfo"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	"github.com/matzehuels/circuitdag/pkg/pipeline"
)

// maxBodyBytes bounds a request body: the largest accepted source plus
// room for JSON escaping and the other fields.
const maxBodyBytes = 2*apperr.MaxSourceBytes + 64<<10

// ConvertResponse is the body of a successful POST /v1/convert.
type ConvertResponse struct {
	RunID      string         `json:"run_id"`
	RequestID  string         `json:"request_id"`
	Program    string         `json:"program"`
	SourceHash string         `json:"source_hash"`
	CacheHit   bool           `json:"cache_hit"`
	Stats      pipeline.Stats `json:"stats"`

	// Graph is set for JSON output, Schedule for text output.
	Graph    json.RawMessage `json:"graph,omitempty"`
	Schedule string          `json:"schedule,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()}); err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.ErrCodeInternal, err, "encode response"))
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, decodeError(err))
		return
	}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := ConvertResponse{
		RunID:      res.RunID,
		RequestID:  RequestID(r.Context()),
		Program:    res.Program,
		SourceHash: res.SourceHash,
		CacheHit:   res.CacheHit,
		Stats:      res.Stats,
	}
	if opts.Output == pipeline.OutputText {
		resp.Schedule = string(res.Output)
	} else {
		resp.Graph = json.RawMessage(res.Output)
	}
	if err := s.writeJSON(w, r, http.StatusOK, resp); err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.ErrCodeInternal, err, "encode response"))
	}
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.New(apperr.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid request body")
}

// writeJSON encodes v before writing the header, so an encoding failure
// leaves the response untouched for the caller to report. Write failures
// after the header are only logged.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn("write response", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
	}
	return nil
}
