package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/uploader"
)

const validCSV = "id,name,description,basePrice,stock,image,category\n" +
	"1,Laptop Pro,High-performance laptop,1200,10,laptop.jpg,Electronics\n" +
	"2,Wireless Mouse,Ergonomic mouse,25,200,mouse.jpg,Accessories\n"

type uploadTestEnv struct {
	router   *gin.Engine
	products *store.MemoryStore
	jobs     store.JobStore
}

func setupUploadTest(delay time.Duration, maxUpload int64) *uploadTestEnv {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	products := store.NewMemoryStore()
	jobs := store.NewMemoryJobStore()
	handler := NewUploadHandler(
		uploader.New(products, delay, logger),
		jobs,
		nil,
		NewRequestValidator(),
		maxUpload,
		logger,
	)

	router := gin.New()
	router.POST("/api/v1/catalog/upload", handler.UploadProducts)
	router.GET("/api/v1/catalog/upload/status", handler.GetUploadState)
	router.GET("/api/v1/catalog/upload/jobs/:jobId", handler.GetUploadJob)
	router.GET("/api/v1/catalog/upload/template", handler.GetImportTemplate)

	return &uploadTestEnv{router: router, products: products, jobs: jobs}
}

// Helper to build a multipart upload request
func newUploadRequest(fileName, content string, fields map[string]string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, _ := writer.CreateFormFile("file", fileName)
	part.Write([]byte(content))
	for key, value := range fields {
		writer.WriteField(key, value)
	}
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/catalog/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// ===========================================
// Upload Handler Tests
// ===========================================

func TestUploadProducts_Success(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", validCSV, nil))

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	assert.Equal(t, true, response["success"])

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, "Successfully uploaded 2 products", data["message"])

	count, err := env.products.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUploadProducts_MissingFile(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/catalog/upload", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeBody(t, w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "FILE_REQUIRED", errObj["code"])
	assert.Equal(t, "Please upload a CSV file", errObj["message"])
}

func TestUploadProducts_RejectsWrongExtension(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.txt", validCSV, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeBody(t, w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_EXTENSION", errObj["code"])
	assert.Equal(t, "only .csv files can be uploaded", errObj["message"])

	count, _ := env.products.Count(context.Background())
	assert.Equal(t, int64(0), count)
}

func TestUploadProducts_FileTooLarge(t *testing.T) {
	env := setupUploadTest(0, 10)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", validCSV, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeBody(t, w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "FILE_TOO_LARGE", errObj["code"])
}

func TestUploadProducts_MissingColumnsListedInOrder(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", "id,name\n1,Laptop\n", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeBody(t, w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Equal(t, "missing required columns: description, basePrice, stock, image, category", errObj["message"])

	details := errObj["details"].(map[string]interface{})
	assert.Equal(t,
		[]interface{}{"description", "basePrice", "stock", "image", "category"},
		details["missingColumns"])

	count, _ := env.products.Count(context.Background())
	assert.Equal(t, int64(0), count)
}

func TestUploadProducts_ValidateOnlySkipsStore(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", validCSV, map[string]string{"validateOnly": "true"}))

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, true, data["validateOnly"])
	assert.Equal(t, "File is valid, 2 records ready to upload", data["message"])

	count, _ := env.products.Count(context.Background())
	assert.Equal(t, int64(0), count)
}

func TestUploadProducts_AsyncCreatesJob(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", validCSV, map[string]string{"async": "true"}))

	assert.Equal(t, http.StatusAccepted, w.Code)

	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	jobID := data["id"].(string)
	assert.NotEmpty(t, jobID)
	assert.Equal(t, string(models.UploadJobPending), data["status"])
	assert.Equal(t, "products.csv", data["fileName"])

	// The job runs in the background; wait for the terminal state.
	var job *models.UploadJob
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		loaded, err := env.jobs.GetJob(context.Background(), jobID)
		if err == nil && loaded.Status == models.UploadJobCompleted {
			job = loaded
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.NotNil(t, job)
	assert.Equal(t, 2, job.Count)
	assert.NotNil(t, job.CompletedAt)

	count, _ := env.products.Count(context.Background())
	assert.Equal(t, int64(2), count)
}

func TestUploadProducts_AsyncJobRecordsFailure(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", "id,name\n1,Laptop\n", map[string]string{"async": "true"}))

	assert.Equal(t, http.StatusAccepted, w.Code)

	response := decodeBody(t, w)
	jobID := response["data"].(map[string]interface{})["id"].(string)

	var job *models.UploadJob
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		loaded, err := env.jobs.GetJob(context.Background(), jobID)
		if err == nil && loaded.Status == models.UploadJobFailed {
			job = loaded
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.NotNil(t, job)
	assert.Equal(t, "missing required columns: description, basePrice, stock, image, category", job.Error)

	count, _ := env.products.Count(context.Background())
	assert.Equal(t, int64(0), count)
}

func TestUploadProducts_ConflictWhileBusy(t *testing.T) {
	env := setupUploadTest(300*time.Millisecond, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	first := httptest.NewRecorder()
	go func() {
		defer wg.Done()
		env.router.ServeHTTP(first, newUploadRequest("products.csv", validCSV, nil))
	}()

	time.Sleep(100 * time.Millisecond)

	second := httptest.NewRecorder()
	env.router.ServeHTTP(second, newUploadRequest("more.csv", validCSV, nil))

	assert.Equal(t, http.StatusConflict, second.Code)
	response := decodeBody(t, second)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "UPLOAD_IN_PROGRESS", errObj["code"])

	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
}

// ===========================================
// Upload Job Handler Tests
// ===========================================

func TestGetUploadJob_NotFound(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/catalog/upload/jobs/unknown", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	response := decodeBody(t, w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "JOB_NOT_FOUND", errObj["code"])
}

// ===========================================
// Upload State Handler Tests
// ===========================================

func TestGetUploadState_Initial(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/catalog/upload/status", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["busy"])
	assert.NotContains(t, data, "file")
	assert.NotContains(t, data, "status")
}

func TestGetUploadState_AfterFailedUpload(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, newUploadRequest("products.csv", "id,name\n1,Laptop\n", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/catalog/upload/status", nil)
	env.router.ServeHTTP(w, req)

	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	status := data["status"].(map[string]interface{})
	assert.Equal(t, "error", status["kind"])
	assert.Equal(t, "missing required columns: description, basePrice, stock, image, category", status["message"])
}

// ===========================================
// Template Handler Tests
// ===========================================

func TestGetImportTemplate_JSON(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/catalog/upload/template", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	template := response["template"].(map[string]interface{})
	assert.Equal(t, "products", template["entity"])

	columns := template["columns"].([]interface{})
	assert.Len(t, columns, 7)

	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.(map[string]interface{})["name"].(string)
	}
	assert.Equal(t, []string{"id", "name", "description", "basePrice", "stock", "image", "category"}, names)
}

func TestGetImportTemplate_CSV(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/catalog/upload/template?format=csv", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products_upload_template.csv")
	assert.Equal(t, "id,name,description,basePrice,stock,image,category\n", w.Body.String())
}

func TestGetImportTemplate_XLSX(t *testing.T) {
	env := setupUploadTest(0, 0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/catalog/upload/template?format=xlsx", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
