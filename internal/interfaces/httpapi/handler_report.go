package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/fbref-report/internal/infrastructure/export"
	"github.com/riskibarqy/fbref-report/internal/usecase"
)

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateReport")
	defer span.End()

	var req createReportRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.reportService.Create(ctx, usecase.CreateReportInput{
		MatchURL: req.MatchURL,
		MatchID:  req.MatchID,
		Format:   req.Format,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create report failed", "match_url", req.MatchURL, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, reportCreatedDTO{
		TaskID: item.ID,
		Status: "started",
	})
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReports")
	defer span.End()

	tasks := h.reportService.List(ctx)
	items := make([]reportStatusDTO, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, reportToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetReport")
	defer span.End()

	taskID := r.PathValue("taskID")
	item, err := h.reportService.Get(ctx, taskID)
	if err != nil {
		h.logger.WarnContext(ctx, "get report failed", "task_id", taskID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reportToDTO(item))
}

func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DownloadReport")
	defer span.End()

	taskID := r.PathValue("taskID")
	file, err := h.reportService.Download(ctx, taskID)
	if err != nil {
		h.logger.WarnContext(ctx, "download report failed", "task_id", taskID, "error", err)
		writeError(ctx, w, err)
		return
	}

	f, err := os.Open(file.Path)
	if err != nil {
		h.logger.ErrorContext(ctx, "open report file failed", "task_id", taskID, "path", file.Path, "error", err)
		writeError(ctx, w, fmt.Errorf("%w: task=%s", usecase.ErrReportFileMissing, taskID))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: task=%s", usecase.ErrReportFileMissing, taskID))
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ReplaceAll(file.Filename, `"`, "")))
	http.ServeContent(w, r.WithContext(ctx), file.Filename, info.ModTime(), f)
}
