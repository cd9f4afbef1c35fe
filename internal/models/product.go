package models

import (
	"catalog-service/internal/ingest"
)

// JSON is a free-form object used for response metadata and error details
type JSON map[string]interface{}

type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool           `json:"success"`
	Data    *ingest.Record `json:"data"`
	Message *string        `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []ingest.Record `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
	Metadata   *JSON           `json:"metadata,omitempty"`
}

// CatalogStatsResponse represents catalog-wide descriptive statistics
type CatalogStatsResponse struct {
	Success bool         `json:"success"`
	Data    CatalogStats `json:"data"`
	Message *string      `json:"message,omitempty"`
}

type CatalogStats struct {
	Overview   CatalogOverview `json:"overview"`
	Price      PriceStats      `json:"price"`
	ByCategory map[string]int  `json:"byCategory"`
}

type CatalogOverview struct {
	TotalProducts int     `json:"totalProducts"`
	TotalStock    float64 `json:"totalStock"`
	OutOfStock    int     `json:"outOfStock"`
	// Rows whose basePrice failed numeric parsing; excluded from the
	// price aggregates below.
	InvalidPrices int `json:"invalidPrices"`
	InvalidStock  int `json:"invalidStock"`
}

type PriceStats struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stdDev"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
