package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/adpulse/internal/dashboard"
	"github.com/sells-group/adpulse/internal/loader"
	"github.com/sells-group/adpulse/internal/model"
	"github.com/sells-group/adpulse/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseFilter reads the sidebar selection from query parameters: start and end
// as YYYY-MM-DD, platforms and states as comma-separated lists.
func parseFilter(r *http.Request) (model.FilterSpec, error) {
	var spec model.FilterSpec
	q := r.URL.Query()

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(model.DateFormat, v)
		if err != nil {
			return spec, fmt.Errorf("bad start date %q, want YYYY-MM-DD", v)
		}
		spec.Start = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(model.DateFormat, v)
		if err != nil {
			return spec, fmt.Errorf("bad end date %q, want YYYY-MM-DD", v)
		}
		spec.End = &t
	}
	if spec.Start != nil && spec.End != nil && spec.End.Before(*spec.Start) {
		return spec, fmt.Errorf("end date precedes start date")
	}

	spec.Platforms = splitList(q.Get("platforms"))
	spec.States = splitList(q.Get("states"))
	return spec, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// view resolves the current snapshot and applies the request's filter. A nil
// return means the response has already been written.
func (s *Server) view(w http.ResponseWriter, r *http.Request) *dashboard.View {
	snap, loadErr := s.refresher.Holder().Get()
	if snap == nil {
		msg := "no data loaded"
		if loadErr != nil {
			msg = loadErr.Error()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return nil
	}

	spec, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	v := dashboard.Apply(snap, spec)
	return &v
}

// section wraps a payload builder as a JSON handler.
func (s *Server) section(build func(dashboard.View) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.view(w, r)
		if v == nil {
			return
		}
		writeJSON(w, http.StatusOK, build(*v))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, loadErr := s.refresher.Holder().Get()
	resp := map[string]any{"status": "ok"}
	if snap != nil {
		resp["loaded_at"] = snap.LoadedAt
		resp["merged_rows"] = len(snap.Merged)
	}
	if loadErr != nil {
		resp["status"] = "degraded"
		resp["load_error"] = loadErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	snap, loadErr := s.refresher.Holder().Get()
	if snap == nil {
		msg := "no data loaded"
		if loadErr != nil {
			msg = loadErr.Error()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded_at": snap.LoadedAt,
		"sources":   snap.Quality,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v := s.view(w, r)
	if v == nil {
		return
	}

	section := chi.URLParam(r, "section")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		doc, err := s.builder.Export(*v, section)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		data, err := doc.CSV()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", doc.Name))
		w.Write(data)

	case "xlsx":
		var docs []*dashboard.Document
		if section == "all" {
			docs = s.builder.Documents(*v)
		} else {
			doc, err := s.builder.Export(*v, section)
			if err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			docs = []*dashboard.Document{doc}
		}
		var buf bytes.Buffer
		if err := dashboard.WriteXLSX(docs, &buf); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", section))
		w.Write(buf.Bytes())

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q, want csv or xlsx", format))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	run, err := s.refresher.Refresh(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if loader.IsDataFormatError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, run)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history disabled")
		return
	}

	var filter store.RunFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		filter.Status = model.RefreshStatus(v)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad offset")
			return
		}
		filter.Offset = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []model.RefreshRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history disabled")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}
