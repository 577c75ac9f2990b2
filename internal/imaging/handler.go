package imaging

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/debemdeboas/homestead/internal/auth"
	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/routes"
	"github.com/debemdeboas/homestead/internal/sse"
	"github.com/google/uuid"
)

const (
	maxBatchFiles   = 20
	multipartMemory = 32 << 20

	EventTask = "task"
	EventDone = "done"
)

type Handler struct {
	pipeline *Pipeline
	clients  *sse.SSEClients
	users    auth.UserEnforcer
	fallback bool
}

func NewHandler(pipeline *Pipeline, clients *sse.SSEClients, users auth.UserEnforcer, fallback bool) *Handler {
	return &Handler{
		pipeline: pipeline,
		clients:  clients,
		users:    users,
		fallback: fallback,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+routes.APIImages, h.Upload)
	mux.HandleFunc("GET "+routes.APIImagesEvents, sse.Handler(h.clients, "batch", EventDone))
}

// Upload processes the multipart "files" field as one batch and reports each task's progress
// to SSE listeners on the batch id.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	limit := h.pipeline.maxBytes*maxBatchFiles + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		imagingLogger.Debug().Err(err).Msg("Failed to parse multipart form")
		http.Error(w, config.ErrParseMultipart, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[config.FormFieldFiles]
	if len(headers) == 0 {
		http.Error(w, fmt.Sprintf(config.ErrNoFilesFmt, config.FormFieldFiles), http.StatusBadRequest)
		return
	}
	if len(headers) > maxBatchFiles {
		http.Error(w, fmt.Sprintf(config.ErrTooManyFilesFmt, maxBatchFiles), http.StatusBadRequest)
		return
	}

	opts := Options{Fallback: h.fallback}
	if v := r.FormValue("fallback"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.Fallback = b
		}
	}

	batchID := r.FormValue("batch")
	if batchID == "" {
		batchID = uuid.NewString()
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, readUpload(fh.Filename, func() (io.ReadCloser, error) { return fh.Open() }, h.pipeline.maxBytes))
	}

	result := h.pipeline.Process(r.Context(), owner, batchID, files, opts, func(t Task) {
		if err := h.clients.BroadcastJSON(batchID, EventTask, t); err != nil {
			imagingLogger.Error().Err(err).Msg("Failed to broadcast task")
		}
	})
	h.clients.BroadcastJSON(batchID, EventDone, result)

	w.Header().Set(config.HCType, config.CTypeJSON)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		imagingLogger.Error().Err(err).Msg("Failed to encode batch result")
	}
}

// readUpload reads at most limit+1 bytes, which is enough for Validate to reject an oversized file.
// A file that cannot be read in full is passed on without data so its task fails.
func readUpload(name string, open func() (io.ReadCloser, error), limit int64) File {
	f, err := open()
	if err != nil {
		imagingLogger.Warn().Err(err).Str("file", name).Msg("Failed to open upload")
		return File{Name: name}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		imagingLogger.Warn().Err(err).Str("file", name).Msg("Failed to read upload")
		return File{Name: name}
	}
	return File{Name: name, Data: data}
}
