package uploader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/ingest"
	"catalog-service/internal/store"
)

// DefaultDelay is the simulated upstream latency applied to every
// upload attempt.
const DefaultDelay = 1000 * time.Millisecond

var (
	ErrNoFileSelected   = errors.New("no file selected")
	ErrInvalidExtension = errors.New("only .csv files can be uploaded")
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

// RawFile is the user-selected file content. It exists from selection
// until cleared or processed; nothing about it persists.
type RawFile struct {
	Name string
	Size int64
	Data []byte
}

// HasCSVExtension reports whether a filename passes the upload gate
func HasCSVExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

// StatusKind tags the outcome of the most recent upload attempt
type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the transient user-facing outcome of an attempt
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// Uploader owns one selected file and the status of one upload attempt.
// An attempt validates the file, simulates the upstream transfer,
// parses the content, and hands the full record sequence to the product
// store in a single call. One attempt runs at a time; starting a second
// while one is pending fails with ErrUploadInProgress.
type Uploader struct {
	mu       sync.Mutex
	file     *RawFile
	status   *Status
	inFlight bool

	products store.ProductStore
	delay    time.Duration
	logger   *logrus.Entry
}

func New(products store.ProductStore, delay time.Duration, logger *logrus.Logger) *Uploader {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Uploader{
		products: products,
		delay:    delay,
		logger:   logger.WithField("component", "uploader"),
	}
}

// SelectFile replaces the current file and clears any prior status
func (u *Uploader) SelectFile(f RawFile) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.file = &f
	u.status = nil
}

// ClearFile discards the current file and status
func (u *Uploader) ClearFile() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.file = nil
	u.status = nil
}

// File returns a copy of the currently selected file, or nil
func (u *Uploader) File() *RawFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return nil
	}
	f := *u.file
	return &f
}

// Status returns the outcome of the most recent attempt, or nil when no
// attempt has finished since the last selection
func (u *Uploader) Status() *Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.status == nil {
		return nil
	}
	s := *u.status
	return &s
}

// Busy reports whether an attempt is currently pending. It is a
// best-effort re-entry check, the same way a disabled control is; the
// in-flight guard inside the attempt is what actually serializes.
func (u *Uploader) Busy() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight
}

// Upload runs one attempt against the currently selected file
func (u *Uploader) Upload(ctx context.Context) (int, error) {
	u.mu.Lock()
	if u.inFlight {
		u.mu.Unlock()
		return 0, ErrUploadInProgress
	}
	u.inFlight = true
	file := u.file
	u.mu.Unlock()

	return u.run(ctx, file)
}

// UploadFile selects f and runs one attempt against it in a single
// step, so a concurrent selection cannot swap the file mid-attempt
func (u *Uploader) UploadFile(ctx context.Context, f RawFile) (int, error) {
	u.mu.Lock()
	if u.inFlight {
		u.mu.Unlock()
		return 0, ErrUploadInProgress
	}
	u.inFlight = true
	u.file = &f
	u.status = nil
	file := u.file
	u.mu.Unlock()

	return u.run(ctx, file)
}

// run performs one attempt. Presence and extension checks fail fast
// before any read or delay; those failures keep the file selected. Once
// processing starts the file is discarded whether the attempt succeeds
// or fails, and the error message becomes the status message verbatim.
func (u *Uploader) run(ctx context.Context, file *RawFile) (int, error) {
	defer func() {
		u.mu.Lock()
		u.inFlight = false
		u.mu.Unlock()
	}()

	if file == nil {
		u.setError(ErrNoFileSelected)
		return 0, ErrNoFileSelected
	}
	if !HasCSVExtension(file.Name) {
		u.setError(ErrInvalidExtension)
		return 0, ErrInvalidExtension
	}

	// Simulated upstream transfer; there is no real remote side.
	if err := u.wait(ctx); err != nil {
		u.finish(file, nil, err)
		return 0, err
	}

	records, err := ingest.Parse(string(file.Data))
	if err != nil {
		u.finish(file, nil, err)
		return 0, err
	}

	// Single atomic handoff: the store sees all records or none.
	if err := u.products.UploadProducts(ctx, records); err != nil {
		u.finish(file, nil, err)
		return 0, err
	}

	u.finish(file, records, nil)
	return len(records), nil
}

func (u *Uploader) wait(ctx context.Context) error {
	if u.delay == 0 {
		return nil
	}
	timer := time.NewTimer(u.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// setError records a fail-fast outcome without touching the file
func (u *Uploader) setError(err error) {
	u.logger.WithError(err).Warn("Upload rejected")
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = &Status{Kind: StatusError, Message: err.Error()}
}

// finish records a processing outcome and discards the processed file.
// The selection is only cleared when it still points at this attempt's
// file.
func (u *Uploader) finish(file *RawFile, records []ingest.Record, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == file {
		u.file = nil
	}

	if err != nil {
		u.logger.WithError(err).Warn("Upload failed")
		u.status = &Status{Kind: StatusError, Message: err.Error()}
		return
	}

	u.logger.WithField("count", len(records)).Info("Upload completed")
	u.status = &Status{Kind: StatusSuccess, Message: SuccessMessage(len(records))}
}

// SuccessMessage is the user-facing status line for a completed upload
func SuccessMessage(count int) string {
	return fmt.Sprintf("Successfully uploaded %d products", count)
}
