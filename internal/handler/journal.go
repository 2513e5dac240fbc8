package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tradejournal/internal/journal"
	"tradejournal/internal/repository"
	"tradejournal/internal/service"
)

// maxUploadBytes caps a single spreadsheet upload.
const maxUploadBytes = 20 << 20

type JournalHandler struct {
	Journal *service.JournalService
	Backup  *service.BackupService
	Repo    repository.Repository

	LatestLimit     int
	HistoryPageSize int
}

func (h *JournalHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/journal")
	g.POST("/upload", h.upload)
	g.GET("/ledger", h.ledger)
	g.GET("/history", h.history)
	g.GET("/latest", h.latest)
	g.GET("/imports", h.imports)
	g.GET("/export", h.export)
	g.PUT("/trades/:id/annotations", h.putAnnotations)
	g.POST("/backup", h.backup)
}

func (h *JournalHandler) upload(c *gin.Context) {
	if h.Journal == nil {
		Error(c, http.StatusInternalServerError, "journal unavailable", nil)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		Error(c, http.StatusBadRequest, "missing form file \"file\"", nil)
		return
	}
	if fh.Size > maxUploadBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, "unreadable upload", nil)
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		Error(c, http.StatusBadRequest, "unreadable upload", nil)
		return
	}

	sum, err := h.Journal.ImportUpload(c.Request.Context(), fh.Filename, data)
	if err != nil {
		var schemaErr *journal.SchemaError
		if errors.As(err, &schemaErr) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, sum, nil)
}

func (h *JournalHandler) ledger(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListTradeRecordsParams{
		Limit:         limit,
		Offset:        offset,
		Name:          strQueryPtr(c, "name"),
		Since:         dateQueryPtr(c, "since"),
		Until:         dateQueryPtr(c, "until"),
		CompletedOnly: strings.EqualFold(c.Query("completed"), "true"),
		OrderBy:       "date",
		Asc:           boolPtr(true),
	}
	items, err := h.Repo.ListTradeRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountTradeRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// history lists completed trades newest first, paginated for the review view.
func (h *JournalHandler) history(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	pageSize := h.HistoryPageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	limit := intQuery(c, "limit", pageSize)
	offset := intQuery(c, "offset", 0)
	params := repository.ListTradeRecordsParams{
		Limit:         limit,
		Offset:        offset,
		Name:          strQueryPtr(c, "name"),
		CompletedOnly: true,
		OrderBy:       "date",
		Asc:           boolPtr(false),
	}
	items, err := h.Repo.ListTradeRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountTradeRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *JournalHandler) latest(c *gin.Context) {
	if h.Journal == nil {
		Error(c, http.StatusInternalServerError, "journal unavailable", nil)
		return
	}
	def := h.LatestLimit
	if def <= 0 {
		def = 5
	}
	limit := intQuery(c, "limit", def)
	items, err := h.Journal.Latest(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *JournalHandler) imports(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	items, err := h.Repo.ListImportBatches(c.Request.Context(), repository.ListImportBatchesParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountImportBatches(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *JournalHandler) export(c *gin.Context) {
	if h.Backup == nil {
		Error(c, http.StatusInternalServerError, "backup unavailable", nil)
		return
	}
	data, _, err := h.Backup.ExportCSV(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="trading_journal.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

type putAnnotationsRequest struct {
	Notes *string `json:"notes"`
	Ratio *string `json:"ratio"`
}

func (h *JournalHandler) putAnnotations(c *gin.Context) {
	if h.Journal == nil {
		Error(c, http.StatusInternalServerError, "journal unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req putAnnotationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Notes == nil && req.Ratio == nil {
		Error(c, http.StatusBadRequest, "nothing to update", nil)
		return
	}
	item, err := h.Journal.UpdateAnnotations(c.Request.Context(), id, req.Notes, req.Ratio)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "trade not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *JournalHandler) backup(c *gin.Context) {
	if h.Backup == nil {
		Error(c, http.StatusInternalServerError, "backup unavailable", nil)
		return
	}
	if err := h.Backup.RunOnce(c.Request.Context()); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"pushed_at": time.Now().UTC().Format(time.RFC3339)}, nil)
}

func dateQueryPtr(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		t := ts.UTC()
		return &t
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }
