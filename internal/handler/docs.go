package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Trade Journal Service

## Journal

- POST /api/v1/journal/upload        multipart "file": CSV or XLSX export
- GET  /api/v1/journal/ledger        full ledger, paginated (name/since/until/completed filters)
- GET  /api/v1/journal/history       completed trades, newest first
- GET  /api/v1/journal/latest        most recent completed trades (?limit=)
- GET  /api/v1/journal/imports       upload audit trail
- GET  /api/v1/journal/export        ledger as CSV download
- PUT  /api/v1/journal/trades/:id/annotations   {"notes": ..., "ratio": ...}
- POST /api/v1/journal/backup        push a snapshot to object storage now

## Analytics

- GET /api/v1/analytics/stats?window=day|7d|30d|all
- GET /api/v1/analytics/equity?window=day|7d|30d|all

## Health

- GET /healthz
- GET /readyz
`)
	})
}
