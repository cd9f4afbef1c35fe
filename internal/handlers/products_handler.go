package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
)

// ProductsHandler serves read access to the catalog
type ProductsHandler struct {
	products        store.ProductStore
	validator       *RequestValidator
	defaultPageSize int
	maxPageSize     int
	logger          *logrus.Entry
}

func NewProductsHandler(products store.ProductStore, validator *RequestValidator, defaultPageSize, maxPageSize int, logger *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{
		products:        products,
		validator:       validator,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.WithField("component", "products-handler"),
	}
}

// GetProducts lists catalog products with pagination and an optional
// exact-match category filter
// GET /api/v1/catalog/products
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	query, err := h.validator.ParseListQuery(c, h.defaultPageSize, h.maxPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_QUERY",
				Message: err.Error(),
			},
		})
		return
	}

	records, total, err := h.products.List(c.Request.Context(), store.ListOptions{
		Page:     query.Page,
		Limit:    query.Limit,
		Category: query.Category,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LIST_FAILED",
				Message: "Failed to list products",
			},
		})
		return
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    records,
		Pagination: &models.PaginationInfo{
			Page:        query.Page,
			Limit:       query.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     query.Page < totalPages,
			HasPrevious: query.Page > 1,
		},
	})
}

// GetProduct returns a single product by id
// GET /api/v1/catalog/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	record, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PRODUCT_NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to load product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LOOKUP_FAILED",
				Message: "Failed to load product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: record})
}

// GetCatalogStats returns descriptive statistics over the catalog.
// Rows whose numeric cells failed parsing are counted separately and
// excluded from the aggregates.
// GET /api/v1/catalog/stats
func (h *ProductsHandler) GetCatalogStats(c *gin.Context) {
	records, err := h.products.All(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load catalog for stats")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "STATS_FAILED",
				Message: "Failed to compute catalog stats",
			},
		})
		return
	}

	result := models.CatalogStats{ByCategory: make(map[string]int)}
	prices := make([]float64, 0, len(records))

	for _, record := range records {
		result.Overview.TotalProducts++
		result.ByCategory[record.Category]++

		if math.IsNaN(record.BasePrice) || math.IsInf(record.BasePrice, 0) {
			result.Overview.InvalidPrices++
		} else {
			prices = append(prices, record.BasePrice)
		}

		if math.IsNaN(record.Stock) || math.IsInf(record.Stock, 0) {
			result.Overview.InvalidStock++
		} else {
			result.Overview.TotalStock += record.Stock
			if record.Stock <= 0 {
				result.Overview.OutOfStock++
			}
		}
	}

	if len(prices) > 0 {
		// The stats helpers only error on empty input, excluded above.
		result.Price.Samples = len(prices)
		result.Price.Min, _ = stats.Min(prices)
		result.Price.Max, _ = stats.Max(prices)
		result.Price.Mean, _ = stats.Mean(prices)
		result.Price.Median, _ = stats.Median(prices)
		result.Price.StdDev, _ = stats.StandardDeviation(prices)
	}

	c.JSON(http.StatusOK, models.CatalogStatsResponse{Success: true, Data: result})
}
