package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/woodline-crm/woodquota/internal/export"
	"github.com/woodline-crm/woodquota/internal/quota"
	"github.com/woodline-crm/woodquota/internal/report"
	"github.com/woodline-crm/woodquota/internal/settings"
	"github.com/woodline-crm/woodquota/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReportHandler serves the admin reporting surface: months, summaries, the
// returns ledger, and the workbook export.
type ReportHandler struct {
	agg      *report.Aggregator
	exporter *export.Exporter
	users    *store.UserStore
}

// NewReportHandler constructs a report handler.
func NewReportHandler(conn *gorm.DB, agg *report.Aggregator, exporter *export.Exporter) *ReportHandler {
	return &ReportHandler{agg: agg, exporter: exporter, users: store.NewUserStore(conn)}
}

// periodMonths resolves the requested period. Explicit month parameters win;
// otherwise the months count is used: absent or 0 means every month with
// activity, N means the last N calendar months that have any.
func (h *ReportHandler) periodMonths(c *gin.Context) ([]string, bool) {
	if explicit := c.QueryArray("month"); len(explicit) > 0 {
		for _, month := range explicit {
			if !quota.ValidMonth(month) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted YYYY-MM"})
				return nil, false
			}
		}
		return explicit, true
	}

	raw := c.DefaultQuery("months", "0")
	n, errParse := strconv.Atoi(raw)
	if errParse != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be a non-negative integer"})
		return nil, false
	}

	months, errMonths := h.agg.PeriodMonths(c.Request.Context(), time.Now().UTC(), n)
	if errMonths != nil {
		respondError(c, errMonths)
		return nil, false
	}
	return months, true
}

// Months lists the month buckets holding active claims, newest first.
func (h *ReportHandler) Months(c *gin.Context) {
	months, errMonths := h.agg.MonthsWithActivity(c.Request.Context())
	if errMonths != nil {
		respondError(c, errMonths)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": months})
}

// Summary returns per-user claim totals for the requested period.
func (h *ReportHandler) Summary(c *gin.Context) {
	months, ok := h.periodMonths(c)
	if !ok {
		return
	}

	claims, errClaims := h.agg.ClaimsForMonths(c.Request.Context(), months, false)
	if errClaims != nil {
		respondError(c, errClaims)
		return
	}
	summary, errSummary := h.agg.Summarize(c.Request.Context(), months, claims)
	if errSummary != nil {
		respondError(c, errSummary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Returns serves a page of the returns ledger for the requested period.
func (h *ReportHandler) Returns(c *gin.Context) {
	months, ok := h.periodMonths(c)
	if !ok {
		return
	}
	page, ok := parsePageQuery(c)
	if !ok {
		return
	}

	pageSize := settings.ReturnsPageSize()
	claims, total, errClaims := h.agg.CancelledClaims(c.Request.Context(), months, (page-1)*pageSize, pageSize)
	if errClaims != nil {
		respondError(c, errClaims)
		return
	}

	rows := make([]claimResponse, 0, len(claims))
	for i := range claims {
		rows = append(rows, toClaimResponse(&claims[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"claims":    rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Export streams an xlsx workbook for the requested period. Cancelled
// claims are included when include_cancelled=true.
func (h *ReportHandler) Export(c *gin.Context) {
	months, ok := h.periodMonths(c)
	if !ok {
		return
	}
	if len(months) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no claims in period", "code": "not_found"})
		return
	}
	includeCancelled := c.DefaultQuery("include_cancelled", "false") == "true"

	claims, errClaims := h.agg.ClaimsForMonths(c.Request.Context(), months, includeCancelled)
	if errClaims != nil {
		respondError(c, errClaims)
		return
	}
	users, errUsers := h.users.List(c.Request.Context())
	if errUsers != nil {
		respondError(c, errUsers)
		return
	}

	data, errBuild := h.exporter.Workbook(months, claims, users)
	if errBuild != nil {
		respondError(c, errBuild)
		return
	}

	fileName := fmt.Sprintf("claims_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
