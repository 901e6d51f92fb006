package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/export"
)

const (
	msgInvalidAmount = "Please enter a valid positive amount."
	msgInvalidForm   = "Please check the expense form and try again."
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger *zap.Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StatusResponse carries the busy flags the UI shows spinners for
type StatusResponse struct {
	Analyzing bool `json:"analyzing"`
	Exporting bool `json:"exporting"`
	Typing    bool `json:"typing"`
}

// SummaryResponse is the summary with its display rows
type SummaryResponse struct {
	export.Summary
	Rows []export.SummaryRow `json:"rows"`
	Note string              `json:"note,omitempty"`
}

// ExpenseRequest is the submission form. Multipart forms may carry the
// receipt file in the "receipt" field.
type ExpenseRequest struct {
	EmployeeName string  `form:"employeeName" json:"employeeName"`
	Date         string  `form:"date" json:"date"`
	Amount       float64 `form:"amount" json:"amount"`
	Currency     string  `form:"currency" json:"currency"`
	Vendor       string  `form:"vendor" json:"vendor"`
	Category     string  `form:"category" json:"category"`
	Description  string  `form:"description" json:"description"`
}

// ThemeRequest sets the theme
type ThemeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// MessageRequest is one chat message from the user
type MessageRequest struct {
	Text string `json:"text"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListPolicies handles GET /api/policies
func (h *Handlers) ListPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Policies.Policies()})
}

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: entity.Categories})
}

// Status handles GET /api/status
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: StatusResponse{
			Analyzing: h.services.Expenses.Analyzing(),
			Exporting: h.services.Reports.Exporting(),
			Typing:    h.services.Chat.Typing(),
		},
	})
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Expenses.List()})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id := c.Param("id")
	entry, ok := h.services.Expenses.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "expense not found",
		})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entry})
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Invalid expense form", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   bindErrorMessage(err),
		})
		return
	}

	upload, err := readUpload(c)
	if err != nil {
		h.logger.Warn("Failed to read receipt upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "Could not read the receipt file.",
		})
		return
	}

	input := entity.ExpenseInput{
		EmployeeName: req.EmployeeName,
		Date:         req.Date,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Vendor:       req.Vendor,
		Category:     entity.Category(req.Category),
		Description:  req.Description,
	}

	entry, err := h.services.Expenses.Submit(c.Request.Context(), input, upload)
	if err == nil {
		c.JSON(http.StatusCreated, Response{Success: true, Data: entry})
		return
	}

	if entity.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if te, ok := ai.AsTransportError(err); ok {
		status := http.StatusBadGateway
		if te.Kind == ai.KindQuota {
			status = http.StatusTooManyRequests
		}
		// the entry was still recorded with the fallback analysis
		c.JSON(status, Response{Success: false, Data: entry, Error: te.Message})
		return
	}

	h.logger.Error("Failed to submit expense", zap.Error(err))
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   "failed to record expense",
	})
}

// ClearExpenses handles DELETE /api/expenses
func (h *Handlers) ClearExpenses(c *gin.Context) {
	h.services.Expenses.Clear(c.Request.Context())
	c.JSON(http.StatusOK, Response{Success: true})
}

// GetSummary handles GET /api/summary
func (h *Handlers) GetSummary(c *gin.Context) {
	summary := h.services.Reports.Summary()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: SummaryResponse{
			Summary: summary,
			Rows:    summary.Rows(),
			Note:    summary.MixedCurrencyNote(),
		},
	})
}

// ExportReport handles GET /api/reports/:format
func (h *Handlers) ExportReport(c *gin.Context) {
	format := service.ReportFormat(c.Param("format"))
	if format != service.FormatPDF && format != service.FormatXLSX {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "unknown report format",
		})
		return
	}

	path, err := h.services.Reports.Export(c.Request.Context(), format)
	if err != nil {
		h.logger.Error("Report export failed", zap.String("format", string(format)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate report.",
		})
		return
	}
	if path == "" {
		c.Status(http.StatusNoContent)
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// GetTheme handles GET /api/theme
func (h *Handlers) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"theme": h.services.Themes.Theme()}})
}

// SetTheme handles PUT /api/theme
func (h *Handlers) SetTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "theme is required"})
		return
	}
	if err := h.services.Themes.SetTheme(c.Request.Context(), entity.Theme(req.Theme)); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"theme": h.services.Themes.Theme()}})
}

// ToggleTheme handles POST /api/theme/toggle
func (h *Handlers) ToggleTheme(c *gin.Context) {
	theme := h.services.Themes.ToggleTheme(c.Request.Context())
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"theme": theme}})
}

// OpenChat handles POST /api/chat/session
func (h *Handlers) OpenChat(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Chat.Open()})
}

// CloseChat handles DELETE /api/chat/session
func (h *Handlers) CloseChat(c *gin.Context) {
	h.services.Chat.Close()
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListMessages handles GET /api/chat/messages
func (h *Handlers) ListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Chat.Messages()})
}

// SendMessage handles POST /api/chat/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid message"})
		return
	}

	msg, err := h.services.Chat.Send(c.Request.Context(), req.Text)
	if err != nil && entity.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	// A failed turn is part of the transcript, so it is still a 200
	c.JSON(http.StatusOK, Response{Success: err == nil, Data: msg})
}

// readUpload returns the optional receipt file of a multipart form
// bindErrorMessage picks the inline form message for a binding failure.
// Amount is the only numeric field, so a number parse error is always it.
func bindErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "amount" {
		return msgInvalidAmount
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return msgInvalidAmount
	}
	return msgInvalidForm
}

func readUpload(c *gin.Context) (*service.Upload, error) {
	header, err := c.FormFile("receipt")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return readFileHeader(header)
}

func readFileHeader(header *multipart.FileHeader) (*service.Upload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &service.Upload{Name: header.Filename, Data: data}, nil
}
