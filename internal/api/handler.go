package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wgomg/vocabula/internal/annotate"
	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/counter"
	"github.com/wgomg/vocabula/internal/preprocess"
	"github.com/wgomg/vocabula/internal/reftag"
	"github.com/wgomg/vocabula/internal/utils"
	"github.com/wgomg/vocabula/internal/utils/httputils"
	"github.com/wgomg/vocabula/internal/vocab"
)

// Lists are the optional auxiliary lists applied to every count request.
type Lists struct {
	Exclude vocab.Set
	RefTags reftag.Detector
}

type Handler struct {
	logger *utils.Logger
	ann    annotate.Annotator
	cfg    *config.Config
	lists  Lists
}

func NewHandler(logger *utils.Logger, ann annotate.Annotator, cfg *config.Config, lists Lists) *Handler {
	return &Handler{
		logger: logger,
		ann:    ann,
		cfg:    cfg,
		lists:  lists,
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if d, ok := h.ann.(annotate.Describer); ok {
		info := d.Info()
		resp.Annotator = info.Kind
	}
	// A down worker restarts on the next request.
	if hc, ok := h.ann.(annotate.HealthChecker); ok && !hc.Healthy() {
		resp.Status = "degraded"
	}
	if err := httputils.JSONResponse(w, http.StatusOK, resp); err != nil {
		h.logger.Error(nil, "Error sending response: %v", err)
	}
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := RequestID(ctx)

	if err := httputils.LogRequestBody(w, r, h.logger, &reqID); err != nil {
		h.logger.Error(&reqID, "Failed to read request body: %v", err)
		httputils.HandleError(w, err)
		return
	}

	var req CountRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		h.logger.Error(&reqID, "JSON decode error: %v", err)
		httputils.HandleError(w, err)
		return
	}

	kind, err := config.ParsePreprocessKind(req.Preprocess)
	if err != nil {
		httputils.HandleError(w, httputils.BadRequest(err.Error()))
		return
	}
	if kind == config.PreprocessCleaner {
		httputils.HandleError(w, httputils.BadRequest("preprocess kind 'cleaner' is only available in batch runs"))
		return
	}
	if req.ChunkChars < 0 {
		httputils.HandleError(w, httputils.BadRequest("chunk_chars must not be negative"))
		return
	}

	text, err := preprocess.Apply(kind, req.Text)
	if err != nil {
		h.logger.Error(&reqID, "Preprocess failed: %v", err)
		httputils.HandleError(w, httputils.BadRequest("preprocess failed: "+err.Error()))
		return
	}

	opts := h.countOptions(&req, &reqID)
	freq, stats, err := counter.CountWithStats(ctx, text, h.ann, opts)
	if err != nil {
		h.logger.Error(&reqID, "Count failed: %v", err)
		httputils.HandleError(w, annotationError(ctx, err))
		return
	}
	freq = counter.Filter(freq, h.lists.Exclude)

	h.logger.Info(&reqID, "Counted request: chars=%d, chunks=%d, unique=%d, tokens=%d",
		utils.CountChars(text), stats.Chunks, freq.Len(), freq.Total())

	resp := CountResponse{
		Unique: freq.Len(),
		Tokens: freq.Total(),
		Chunks: stats.Chunks,
		Nouns:  toEntries(freq.MostCommon(req.Top)),
	}
	if opts.RefCounter != nil && opts.RefCounter.Len() > 0 {
		resp.RefTags = toEntries(opts.RefCounter.MostCommon(0))
	}

	if err := httputils.SuccessResponse(w, "Text counted successfully", resp); err != nil {
		h.logger.Error(&reqID, "Error sending response: %v", err)
	}
}

func (h *Handler) HandleSentences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := RequestID(ctx)

	var req SentencesRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		h.logger.Error(&reqID, "JSON decode error: %v", err)
		httputils.HandleError(w, err)
		return
	}

	out, err := preprocess.SentencesPerLine(ctx, req.Text, h.ann)
	if err != nil {
		h.logger.Error(&reqID, "Sentence split failed: %v", err)
		httputils.HandleError(w, annotationError(ctx, err))
		return
	}

	sentences := []string{}
	if out != "" {
		sentences = strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	}
	if err := httputils.SuccessResponse(w, "Text split successfully", SentencesResponse{Sentences: sentences}); err != nil {
		h.logger.Error(&reqID, "Error sending response: %v", err)
	}
}

func (h *Handler) countOptions(req *CountRequest, reqID *string) counter.Options {
	opts := counter.DefaultOptions()
	opts.Label = "request"
	opts.Logger = h.logger
	opts.RunID = reqID
	opts.ChunkChars = h.cfg.Count.ChunkChars
	if req.ChunkChars > 0 {
		opts.ChunkChars = req.ChunkChars
	}
	if req.UseLemma != nil {
		opts.UseLemma = *req.UseLemma
	}
	if len(req.UPOSTargets) > 0 {
		opts.Targets = req.UPOSTargets
	}
	if h.lists.RefTags != nil {
		opts.RefTags = h.lists.RefTags
		opts.RefCounter = counter.NewFreq()
	}
	return opts
}

// annotationError maps a failed annotator call to the status the client sees.
func annotationError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &httputils.HTTPError{Code: http.StatusServiceUnavailable, Message: "Request canceled"}
	}
	var apiErr *annotate.APIError
	if errors.As(err, &apiErr) {
		return &httputils.HTTPError{Code: http.StatusBadGateway, Message: "Annotator error: " + apiErr.Error()}
	}
	return &httputils.HTTPError{Code: http.StatusBadGateway, Message: "Annotation failed"}
}

func toEntries(entries []counter.Entry) []FrequencyEntry {
	out := make([]FrequencyEntry, len(entries))
	for i, e := range entries {
		out[i] = FrequencyEntry{Word: e.Key, Frequency: e.Count}
	}
	return out
}
