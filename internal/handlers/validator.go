package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RequestValidator handles input validation for the catalog API
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// UploadOptions are the recognized upload request options
type UploadOptions struct {
	ValidateOnly bool
	Async        bool
}

// ParseUploadOptions reads upload options from form fields, falling
// back to query parameters
func (rv *RequestValidator) ParseUploadOptions(c *gin.Context) UploadOptions {
	return UploadOptions{
		ValidateOnly: c.DefaultPostForm("validateOnly", c.DefaultQuery("validateOnly", "false")) == "true",
		Async:        c.DefaultPostForm("async", c.DefaultQuery("async", "false")) == "true",
	}
}

// ListQuery holds validated product listing parameters
type ListQuery struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	Limit    int    `form:"limit" validate:"omitempty,min=1"`
	Category string `form:"category" validate:"omitempty,max=200"`
}

// ParseListQuery binds and validates listing parameters, applying the
// configured default and maximum page sizes
func (rv *RequestValidator) ParseListQuery(c *gin.Context, defaultLimit, maxLimit int) (*ListQuery, error) {
	query := &ListQuery{}
	if err := c.ShouldBindQuery(query); err != nil {
		return nil, fmt.Errorf("invalid query parameters: %w", err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = defaultLimit
	}
	if query.Limit > maxLimit {
		query.Limit = maxLimit
	}

	if err := rv.validate.Struct(query); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return query, nil
}

// ValidateFileSize checks an upload against the configured size cap
func (rv *RequestValidator) ValidateFileSize(size, max int64) error {
	if max > 0 && size > max {
		return fmt.Errorf("file too large (max %dMB)", max/(1024*1024))
	}
	return nil
}
