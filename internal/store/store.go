package store

import (
	"context"
	"errors"

	"catalog-service/internal/ingest"
	"catalog-service/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrJobNotFound     = errors.New("upload job not found")
)

// ListOptions controls pagination and filtering for product listings
type ListOptions struct {
	Page     int
	Limit    int
	Category string
}

// ProductStore holds the authoritative product collection. UploadProducts
// takes the full record sequence of one upload in a single call and
// merges by id: an incoming record replaces any existing record with the
// same id and is appended otherwise.
type ProductStore interface {
	UploadProducts(ctx context.Context, records []ingest.Record) error
	List(ctx context.Context, opts ListOptions) ([]ingest.Record, int64, error)
	Get(ctx context.Context, id string) (*ingest.Record, error)
	All(ctx context.Context) ([]ingest.Record, error)
	Count(ctx context.Context) (int64, error)
}

// JobStore tracks asynchronous upload jobs
type JobStore interface {
	SaveJob(ctx context.Context, job *models.UploadJob) error
	GetJob(ctx context.Context, id string) (*models.UploadJob, error)
}
