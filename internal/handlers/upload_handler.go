package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/events"
	"catalog-service/internal/ingest"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/uploader"
)

// UploadHandler serves the product upload surface: the upload itself,
// asynchronous job tracking, and the template download.
type UploadHandler struct {
	uploader  *uploader.Uploader
	jobs      store.JobStore
	publisher *events.Publisher
	validator *RequestValidator
	maxUpload int64
	logger    *logrus.Entry
}

func NewUploadHandler(u *uploader.Uploader, jobs store.JobStore, publisher *events.Publisher, validator *RequestValidator, maxUpload int64, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		uploader:  u,
		jobs:      jobs,
		publisher: publisher,
		validator: validator,
		maxUpload: maxUpload,
		logger:    logger.WithField("component", "upload-handler"),
	}
}

// UploadProducts ingests a CSV of product records into the catalog
// POST /api/v1/catalog/upload
// validateOnly=true parses and validates without touching the store;
// async=true queues the attempt and responds with a job id.
func (h *UploadHandler) UploadProducts(c *gin.Context) {
	startTime := time.Now()
	requestID := middleware.GetRequestID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV file",
			},
			RequestID: requestID,
		})
		return
	}
	defer file.Close()

	// The extension gate runs before any content is read.
	if !uploader.HasCSVExtension(header.Filename) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_EXTENSION",
				Message: uploader.ErrInvalidExtension.Error(),
				Field:   "file",
			},
			RequestID: requestID,
		})
		return
	}

	if err := h.validator.ValidateFileSize(header.Size, h.maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: err.Error(),
				Field:   "file",
			},
			RequestID: requestID,
		})
		return
	}

	if h.uploader.Busy() {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_IN_PROGRESS",
				Message: uploader.ErrUploadInProgress.Error(),
			},
			RequestID: requestID,
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: "Failed to read uploaded file",
			},
			RequestID: requestID,
		})
		return
	}

	opts := h.validator.ParseUploadOptions(c)
	raw := uploader.RawFile{Name: header.Filename, Size: header.Size, Data: data}

	if opts.ValidateOnly {
		h.validateUpload(c, raw, startTime, requestID)
		return
	}

	if opts.Async {
		h.queueUpload(c, raw, requestID)
		return
	}

	count, err := h.uploader.UploadFile(c.Request.Context(), raw)
	if err != nil {
		middleware.CountUploadFailure()
		h.publisher.PublishImportFailed("", raw.Name, requestID, err)
		h.respondUploadError(c, err, requestID)
		return
	}

	middleware.CountUploadedRecords(count)
	h.publisher.PublishImportCompleted("", raw.Name, requestID, count)

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: models.UploadResult{
			Success:      true,
			Count:        count,
			Message:      uploader.SuccessMessage(count),
			ProcessingMs: time.Since(startTime).Milliseconds(),
		},
	})
}

// validateUpload runs the dry-run path: parse and validate, store
// untouched, no simulated transfer
func (h *UploadHandler) validateUpload(c *gin.Context, raw uploader.RawFile, startTime time.Time, requestID string) {
	records, err := ingest.Parse(string(raw.Data))
	if err != nil {
		h.respondUploadError(c, err, requestID)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: models.UploadResult{
			Success:      true,
			Count:        len(records),
			ValidateOnly: true,
			Message:      fmt.Sprintf("File is valid, %d records ready to upload", len(records)),
			ProcessingMs: time.Since(startTime).Milliseconds(),
		},
	})
}

// queueUpload accepts the attempt for background processing
func (h *UploadHandler) queueUpload(c *gin.Context, raw uploader.RawFile, requestID string) {
	job := &models.UploadJob{
		ID:          uuid.New().String(),
		Status:      models.UploadJobPending,
		FileName:    raw.Name,
		FileSize:    raw.Size,
		SubmittedAt: time.Now().UTC(),
	}

	if err := h.jobs.SaveJob(c.Request.Context(), job); err != nil {
		h.logger.WithError(err).Error("Failed to save upload job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "JOB_SAVE_FAILED",
				Message: "Failed to queue upload",
			},
			RequestID: requestID,
		})
		return
	}

	// The goroutine gets its own copy so the response marshal below
	// never races with job updates.
	queued := *job
	go h.runUploadJob(&queued, raw, requestID)

	message := "Upload accepted for processing"
	c.JSON(http.StatusAccepted, models.SuccessResponse{
		Success: true,
		Data:    job,
		Message: &message,
	})
}

// runUploadJob executes a queued attempt outside the request cycle
func (h *UploadHandler) runUploadJob(job *models.UploadJob, raw uploader.RawFile, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	job.Status = models.UploadJobProcessing
	if err := h.jobs.SaveJob(ctx, job); err != nil {
		h.logger.WithError(err).Warn("Failed to mark upload job processing")
	}

	count, err := h.uploader.UploadFile(ctx, raw)

	completed := time.Now().UTC()
	job.CompletedAt = &completed

	if err != nil {
		job.Status = models.UploadJobFailed
		job.Error = err.Error()
		middleware.CountUploadFailure()
		h.publisher.PublishImportFailed(job.ID, job.FileName, requestID, err)
	} else {
		job.Status = models.UploadJobCompleted
		job.Count = count
		middleware.CountUploadedRecords(count)
		h.publisher.PublishImportCompleted(job.ID, job.FileName, requestID, count)
	}

	if err := h.jobs.SaveJob(ctx, job); err != nil {
		h.logger.WithError(err).Error("Failed to record upload job result")
	}
}

// GetUploadJob returns the status of an asynchronous upload
// GET /api/v1/catalog/upload/jobs/:jobId
func (h *UploadHandler) GetUploadJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "JOB_NOT_FOUND",
					Message: "Upload job not found",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to load upload job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "JOB_LOOKUP_FAILED",
				Message: "Failed to load upload job",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: job})
}

// GetUploadState reports the transient selector state: whether an
// attempt is pending, the selected file, and the last outcome
// GET /api/v1/catalog/upload/status
func (h *UploadHandler) GetUploadState(c *gin.Context) {
	state := gin.H{"busy": h.uploader.Busy()}
	if f := h.uploader.File(); f != nil {
		state["file"] = gin.H{"name": f.Name, "size": f.Size}
	}
	if s := h.uploader.Status(); s != nil {
		state["status"] = s
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: state})
}

// respondUploadError maps upload failures onto the API error taxonomy,
// surfacing the underlying message verbatim
func (h *UploadHandler) respondUploadError(c *gin.Context, err error, requestID string) {
	var verr *ingest.ValidationError

	switch {
	case errors.Is(err, uploader.ErrNoFileSelected):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success:   false,
			Error:     models.Error{Code: "FILE_REQUIRED", Message: err.Error()},
			RequestID: requestID,
		})
	case errors.Is(err, uploader.ErrInvalidExtension):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success:   false,
			Error:     models.Error{Code: "INVALID_EXTENSION", Message: err.Error(), Field: "file"},
			RequestID: requestID,
		})
	case errors.Is(err, uploader.ErrUploadInProgress):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success:   false,
			Error:     models.Error{Code: "UPLOAD_IN_PROGRESS", Message: err.Error()},
			RequestID: requestID,
		})
	case errors.As(err, &verr):
		details := models.JSON{"missingColumns": verr.MissingColumns}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success:   false,
			Error:     models.Error{Code: "VALIDATION_ERROR", Message: verr.Error(), Details: &details},
			RequestID: requestID,
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success:   false,
			Error:     models.Error{Code: "UPLOAD_FAILED", Message: err.Error()},
			RequestID: requestID,
		})
	}
}

// GetImportTemplate returns the upload template definition or file
// GET /api/v1/catalog/upload/template
func (h *UploadHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *UploadHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_upload_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *UploadHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Name)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Add Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Upload Instructions")

	f.SetCellValue("Instructions", "A3", "FORMAT:")
	f.SetCellValue("Instructions", "A4", "- Save the Products sheet as CSV before uploading; only .csv files are accepted.")
	f.SetCellValue("Instructions", "A5", "- All seven columns are required. Column order does not matter, but names must match exactly.")
	f.SetCellValue("Instructions", "A6", "- Values are taken as-is. There is no quoting support, so avoid commas inside values.")
	f.SetCellValue("Instructions", "A7", "- basePrice and stock must be numeric.")
	f.SetCellValue("Instructions", "A8", "- A row reusing an existing id replaces that product.")

	f.SetCellValue("Instructions", "A10", "Column Definitions:")
	f.SetCellValue("Instructions", "A11", "Column")
	f.SetCellValue("Instructions", "B11", "Description")
	f.SetCellValue("Instructions", "C11", "Required")
	f.SetCellValue("Instructions", "D11", "Type")
	f.SetCellValue("Instructions", "E11", "Example")

	for i, col := range template.Columns {
		row := i + 12
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_upload_template.xlsx")

	f.Write(c.Writer)
}
