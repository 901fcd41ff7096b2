// export.go: download endpoints rendering a plan as TSV, CSV or XLSX.
package api

import (
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/platewell/qpcr-go/internal/export"
	"github.com/platewell/qpcr-go/internal/planner"
)

// initExportRoutes registers the export endpoints. Exports accept the same
// request body as the plan endpoint and re-plan server side, so the download
// always matches what a plan call with the same body would return.
func (c *Controller) initExportRoutes() {
	c.Group.POST("/plan/export/tsv", c.ExportTSV)
	c.Group.POST("/plan/export/csv", c.ExportCSV)
	c.Group.POST("/plan/export/xlsx", c.ExportXLSX)
}

// ExportTSV returns the plate layout as tab-separated text.
// @Summary Export plate layout as TSV
// @Tags export
// @Accept json
// @Produce plain
// @Success 200 {string} string
// @Failure 400 {object} ErrorResponse
// @Router /api/v2/plan/export/tsv [post]
func (c *Controller) ExportTSV(ctx echo.Context) error {
	result, respErr := c.planForExport(ctx)
	if result == nil {
		return respErr
	}

	c.logExport(ctx, "tsv", len(result.Layout))
	return ctx.Blob(http.StatusOK, "text/tab-separated-values", []byte(export.LayoutTSV(result)))
}

// ExportCSV returns the plate layout as a CSV download.
// @Summary Export plate layout as CSV
// @Tags export
// @Accept json
// @Produce text/csv
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/v2/plan/export/csv [post]
func (c *Controller) ExportCSV(ctx echo.Context) error {
	result, respErr := c.planForExport(ctx)
	if result == nil {
		return respErr
	}

	data, err := export.LayoutCSV(result)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate CSV", http.StatusInternalServerError)
	}

	c.logExport(ctx, "csv", len(result.Layout))
	setDownloadHeaders(ctx, "plate_layout.csv")
	return ctx.Blob(http.StatusOK, "text/csv", data)
}

// ExportXLSX returns the full plan as an Excel workbook download.
// @Summary Export plan as XLSX workbook
// @Tags export
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/v2/plan/export/xlsx [post]
func (c *Controller) ExportXLSX(ctx echo.Context) error {
	result, respErr := c.planForExport(ctx)
	if result == nil {
		return respErr
	}

	data, err := export.Workbook(result)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate workbook", http.StatusInternalServerError)
	}

	c.logExport(ctx, "xlsx", len(result.Layout))
	setDownloadHeaders(ctx, "qpcr_plan.xlsx")
	return ctx.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// planForExport binds the shared plan request body and runs the planner. On
// failure it writes the error response and returns a nil result; the second
// return value is whatever the response write produced.
func (c *Controller) planForExport(ctx echo.Context) (*planner.Result, error) {
	var req PlanRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	result, _, status, err := c.runPlan(&req)
	if err != nil {
		return nil, c.HandleError(ctx, err, "Planning failed", status)
	}
	return result, nil
}

func (c *Controller) logExport(ctx echo.Context, format string, rows int) {
	c.logAPIRequest(ctx, slog.LevelInfo, "Plan exported",
		"format", format,
		"layout_rows", rows,
	)
}

func setDownloadHeaders(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Response().Header().Set("X-Export-Timestamp", time.Now().UTC().Format(time.RFC3339))
}
