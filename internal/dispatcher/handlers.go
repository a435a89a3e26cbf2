package dispatcher

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/apperrors"
	"github.com/wess-project/wessd/internal/store"
	"github.com/wess-project/wessd/internal/workers"
)

// Mux builds the net/http.ServeMux the teacher's gateway handlers route
// on, with the base-path dispatch spec.md §6 specifies: POST/GET `/`,
// PUT/DELETE/GET/POST `/:id`, GET `/metrics`.
func (d *Dispatcher) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", d.track(d.handleRoot))
	return mux
}

func (d *Dispatcher) track(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: 200}
		h(rec, r)
		if d.metrics != nil {
			path := routeTemplate(r.URL.Path)
			d.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path).Inc()
			d.metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			if rec.status >= 400 {
				d.metrics.ErrorsTotal.Inc()
			}
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func routeTemplate(path string) string {
	if path == "/" || path == "/metrics" {
		return path
	}
	return "/:id"
}

func (d *Dispatcher) handleRoot(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/")

	switch {
	case id == "" && r.Method == http.MethodPost:
		d.handleCreate(w, r)
	case id == "" && r.Method == http.MethodGet:
		d.handleCount(w, r)
	case id != "" && r.Method == http.MethodPut:
		d.handleUpdate(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		d.handleDelete(w, r, id)
	case id != "" && r.Method == http.MethodGet:
		d.handleRead(w, r, id)
	case id != "" && r.Method == http.MethodPost:
		d.handleInvoke(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (d *Dispatcher) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	if err := d.engine.QuickValidate(ctx, rec.Wasm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := NewIdentifier()
	if err := d.enqueueWrite(ctx, workers.WriteJob{ID: id, Op: workers.OpCreate, Payload: &rec}); err != nil {
		d.logger.Error("enqueue create failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue create")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (d *Dispatcher) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if _, found, err := d.FetchModule(ctx, id); err != nil {
		writeErrForErr(w, err)
		return
	} else if !found {
		writeError(w, http.StatusNotFound, "identifier not found")
		return
	}

	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := d.engine.QuickValidate(ctx, rec.Wasm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := d.enqueueWrite(ctx, workers.WriteJob{ID: id, Op: workers.OpUpdate, Payload: &rec}); err != nil {
		d.logger.Error("enqueue update failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue update")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (d *Dispatcher) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if _, found, err := d.FetchModule(ctx, id); err != nil {
		writeErrForErr(w, err)
		return
	} else if !found {
		writeError(w, http.StatusNotFound, "identifier not found")
		return
	}

	if err := d.enqueueWrite(ctx, workers.WriteJob{ID: id, Op: workers.OpDelete}); err != nil {
		d.logger.Error("enqueue delete failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue delete")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (d *Dispatcher) handleRead(w http.ResponseWriter, r *http.Request, id string) {
	rec, found, err := d.FetchModule(r.Context(), id)
	if err != nil {
		writeErrForErr(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "identifier not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (d *Dispatcher) handleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reply := make(chan workers.ReadReply, 1)
	if err := d.enqueueRead(ctx, workers.ReadJob{Reply: reply}); err != nil {
		writeErrForErr(w, err)
		return
	}
	rr, err := d.awaitRead(ctx, reply)
	if err != nil {
		writeErrForErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": rr.Count})
}

func (d *Dispatcher) handleInvoke(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var rawArgs []any
	if err := dec.Decode(&rawArgs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	args := make([]any, 0, len(rawArgs))
	for _, v := range rawArgs {
		if v != nil {
			args = append(args, v)
		}
	}

	reply := make(chan workers.RunReply, 1)
	if err := d.enqueueRun(ctx, workers.RunJob{ID: id, Args: args, Reply: reply}); err != nil {
		writeErrForErr(w, err)
		return
	}
	rr, err := d.awaitRun(ctx, reply)
	if err != nil {
		writeErrForErr(w, err)
		return
	}

	out := make([]any, len(rr.Results))
	for i, v := range rr.Results {
		out[i] = v.Value
	}
	writeJSON(w, http.StatusOK, out)
}

func writeErrForErr(w http.ResponseWriter, err error) {
	writeError(w, apperrors.HTTPStatus(err), err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
