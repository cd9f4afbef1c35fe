package models

import "time"

// UploadJobStatus represents the status of an asynchronous upload job
type UploadJobStatus string

const (
	UploadJobPending    UploadJobStatus = "PENDING"
	UploadJobProcessing UploadJobStatus = "PROCESSING"
	UploadJobCompleted  UploadJobStatus = "COMPLETED"
	UploadJobFailed     UploadJobStatus = "FAILED"
)

// ImportTemplateColumn defines a column in the upload template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an upload template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// UploadResult represents the outcome of one upload attempt
type UploadResult struct {
	Success      bool   `json:"success"`
	Count        int    `json:"count"`
	ValidateOnly bool   `json:"validateOnly,omitempty"`
	Message      string `json:"message"`
	ProcessingMs int64  `json:"processingMs"`
}

// UploadJob tracks an asynchronous upload attempt
type UploadJob struct {
	ID          string          `json:"id"`
	Status      UploadJobStatus `json:"status"`
	FileName    string          `json:"fileName"`
	FileSize    int64           `json:"fileSize"`
	Count       int             `json:"count"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submittedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// ProductImportColumns returns the column definitions for product uploads
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "id", Description: "Product identifier; an upload replaces any existing product with the same id", Required: true, Type: "string", Example: "1"},
		{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Laptop Pro"},
		{Name: "description", Description: "Product description", Required: true, Type: "string", Example: "High-performance laptop"},
		{Name: "basePrice", Description: "Base price", Required: true, Type: "number", Example: "1200"},
		{Name: "stock", Description: "Units in stock", Required: true, Type: "number", Example: "10"},
		{Name: "image", Description: "Image URL", Required: true, Type: "string", Example: "https://example.com/laptop.jpg"},
		{Name: "category", Description: "Category name", Required: true, Type: "string", Example: "Electronics"},
	}
}

// ProductImportTemplate returns the template definition for product uploads
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
