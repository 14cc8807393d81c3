package controllers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"imdcheck/internal/models"
	"imdcheck/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	pageTemplateName = "index.html"
	exportFilename   = "imd-results.xlsx"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	unavailableMessage = "The deprivation dataset is currently unavailable. Please try again later."
)

//go:embed templates/*.html
var templateFS embed.FS

type LookupProvider interface {
	Lookup(ctx context.Context, postcodes []string, maxDecile *int) (services.LookupResult, error)
}

type WorkbookWriter interface {
	WriteWorkbook(w io.Writer, rows []models.ResultRow) error
}

type LookupController struct {
	service  LookupProvider
	exporter WorkbookWriter
	logger   *slog.Logger
	page     *template.Template
}

type LookupResponse struct {
	Searched bool               `json:"searched"`
	Count    int                `json:"count"`
	Rows     []models.ResultRow `json:"rows"`
}

type pageData struct {
	Postcodes string
	Decile    string
	Searched  bool
	Rows      []models.ResultRow
	ExportURL string
	Error     string
}

// lookupQuery is the raw user input from the p and d query parameters.
type lookupQuery struct {
	postcodes []string
	decile    *int
	rawDecile string
}

func NewLookupController(service LookupProvider, exporter WorkbookWriter, logger *slog.Logger) (*LookupController, error) {
	if service == nil {
		return nil, errors.New("lookup service is nil")
	}
	if exporter == nil {
		return nil, errors.New("export service is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	page, err := template.ParseFS(templateFS, "templates/"+pageTemplateName)
	if err != nil {
		return nil, err
	}

	return &LookupController{
		service:  service,
		exporter: exporter,
		logger:   logger,
		page:     page,
	}, nil
}

func (c *LookupController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("lookup controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.SetHTMLTemplate(c.page)
	router.GET("/", c.getPage)
	router.GET("/api/lookup", c.getLookup)
	router.GET("/export.xlsx", c.getExport)
	return nil
}

func (c *LookupController) getPage(ctx *gin.Context) {
	query := parseLookupQuery(ctx)
	data := pageData{
		Postcodes: refillPostcodes(query.postcodes),
	}
	// A blank or zero decile leaves the input empty.
	if query.rawDecile != "" && query.rawDecile != "0" {
		data.Decile = strconv.Itoa(services.ClampDecile(query.decile))
	}

	result, err := c.service.Lookup(ctx.Request.Context(), query.postcodes, query.decile)
	if err != nil {
		c.logger.Error("lookup postcodes", "error", err)
		data.Error = unavailableMessage
		ctx.HTML(statusForError(err), pageTemplateName, data)
		return
	}

	data.Searched = result.Searched
	data.Rows = result.Rows
	data.ExportURL = "/export.xlsx?" + ctx.Request.URL.RawQuery
	ctx.HTML(http.StatusOK, pageTemplateName, data)
}

func (c *LookupController) getLookup(ctx *gin.Context) {
	query := parseLookupQuery(ctx)

	result, err := c.service.Lookup(ctx.Request.Context(), query.postcodes, query.decile)
	if err != nil {
		c.logger.Error("lookup postcodes", "error", err)
		ctx.JSON(statusForError(err), ErrorResponse{Error: "failed to look up postcodes"})
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []models.ResultRow{}
	}
	ctx.JSON(http.StatusOK, LookupResponse{
		Searched: result.Searched,
		Count:    len(rows),
		Rows:     rows,
	})
}

func (c *LookupController) getExport(ctx *gin.Context) {
	query := parseLookupQuery(ctx)

	result, err := c.service.Lookup(ctx.Request.Context(), query.postcodes, query.decile)
	if err != nil {
		c.logger.Error("lookup postcodes for export", "error", err)
		ctx.JSON(statusForError(err), ErrorResponse{Error: "failed to look up postcodes"})
		return
	}

	var buf bytes.Buffer
	if err := c.exporter.WriteWorkbook(&buf, result.Rows); err != nil {
		c.logger.Error("write workbook", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to export results"})
		return
	}

	ctx.Header("Content-Disposition", "attachment; filename="+exportFilename)
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseLookupQuery(ctx *gin.Context) lookupQuery {
	rawDecile := strings.TrimSpace(ctx.Query("d"))
	return lookupQuery{
		postcodes: services.SplitPostcodes(ctx.Query("p")),
		decile:    services.ParseDecile(rawDecile),
		rawDecile: rawDecile,
	}
}

// refillPostcodes echoes every submitted line upper-cased, repeats and
// blanks included, so the textarea shows what was searched.
func refillPostcodes(lines []string) string {
	refilled := make([]string, 0, len(lines))
	for _, line := range lines {
		refilled = append(refilled, strings.ToUpper(strings.TrimSuffix(line, "\r")))
	}
	return strings.Join(refilled, "\n")
}

func statusForError(err error) int {
	if errors.Is(err, services.ErrDataUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
