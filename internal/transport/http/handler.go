package httptransport

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sems-converter/internal/entity"
	"sems-converter/internal/service"
)

type Handler struct {
	reg         *service.Registry
	log         *zap.Logger
	maxUpload   int64
	outputTypes map[string]string
}

type Options struct {
	// MaxUploadBytes caps a submitted file; 0 means 32 MiB.
	MaxUploadBytes int64
	// OutputTypes maps a job kind to the Content-Type of its output download.
	OutputTypes map[string]string
}

func NewHandler(reg *service.Registry, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{
		reg:         reg,
		log:         log.With(zap.String("component", "http")),
		maxUpload:   opts.MaxUploadBytes,
		outputTypes: opts.OutputTypes,
	}
}

type slotDTO struct {
	Name     string `json:"name"`
	Accept   string `json:"accept,omitempty"`
	Assigned bool   `json:"assigned"`
}

type filesResp struct {
	InputFiles  []slotDTO `json:"inputFiles"`
	OutputFiles []slotDTO `json:"outputFiles"`
}

type runResp struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Output     string  `json:"output"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	CreatedAt  string  `json:"created_at"`
}

func toSlotDTOs(slots []entity.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{Name: s.Name, Accept: strings.Join(s.Accept, ","), Assigned: s.Assigned()})
	}
	return out
}

// ListFiles godoc
// @Summary List the input and output files of a conversion
// @Tags convert
// @Produce json
// @Param kind path string true "job kind (election|tallies)"
// @Success 200 {object} filesResp
// @Failure 404 {object} apiError
// @Router /convert/{kind}/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	sl, err := h.reg.ListSlots(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filesResp{
		InputFiles:  toSlotDTOs(sl.Inputs),
		OutputFiles: toSlotDTOs(sl.Outputs),
	})
}

// SubmitFile godoc
// @Summary Upload an input file
// @Description Stores the file in the named input slot, replacing a previous upload.
// @Tags convert
// @Accept mpfd
// @Produce json
// @Param kind path string true "job kind (election|tallies)"
// @Param name formData string true "input slot name"
// @Param file formData file true "file content"
// @Success 200 {object} statusResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 413 {object} apiError
// @Router /convert/{kind}/submitfile [post]
func (h *Handler) SubmitFile(w http.ResponseWriter, r *http.Request) {
	job, err := h.reg.Dispatch(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if r.ContentLength > h.maxUpload {
		writeErr(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	name := r.FormValue("name")
	if name == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "could not read file")
		return
	}

	if err := job.Assign(r.Context(), name, data); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "ok", "")
}

// Process godoc
// @Summary Run the conversion
// @Description Converts the uploaded inputs. Answers 409 until every input file is uploaded.
// @Tags convert
// @Produce json
// @Param kind path string true "job kind (election|tallies)"
// @Success 200 {object} statusResp
// @Failure 404 {object} apiError
// @Failure 409 {object} statusResp
// @Failure 422 {object} apiError
// @Router /convert/{kind}/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	job, err := h.reg.Dispatch(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out, err := job.Process(r.Context())
	if errors.Is(err, service.ErrNotReady) {
		writeStatus(w, http.StatusConflict, err.Error(), "")
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "ok", out)
}

// Output godoc
// @Summary Download a converted file
// @Tags convert
// @Produce octet-stream
// @Param kind path string true "job kind (election|tallies)"
// @Param name query string true "output slot name"
// @Success 200 {file} file
// @Failure 404 {object} apiError
// @Router /convert/{kind}/output [get]
func (h *Handler) Output(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	job, err := h.reg.Dispatch(kind)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	data, err := job.RetrieveOutput(r.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrSlotNotFound) {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeServiceError(w, err)
		return
	}

	writeAttachment(w, name, h.outputTypes[kind], data)
}

// Runs godoc
// @Summary Recent conversion runs
// @Tags convert
// @Produce json
// @Param kind path string true "job kind (election|tallies)"
// @Param limit query int false "max runs (default 20, max 100)"
// @Success 200 {array} runResp
// @Failure 404 {object} apiError
// @Router /convert/{kind}/runs [get]
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.reg.Runs(r.Context(), chi.URLParam(r, "kind"), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]runResp, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResp{
			ID:         run.ID.String(),
			Kind:       run.Kind,
			Output:     run.Output,
			Status:     string(run.Status),
			Error:      run.Error,
			DurationMS: run.DurationMS,
			CreatedAt:  run.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset godoc
// @Summary Reset all conversions
// @Description Deletes every uploaded and converted file of every job kind.
// @Tags convert
// @Produce json
// @Success 200 {object} statusResp
// @Failure 500 {object} apiError
// @Router /convert/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Reset(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "ok", "")
}

// writeServiceError maps core outcomes to status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrKindNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSlotNotFound):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAvailable):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotReady):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConversionFailed):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
