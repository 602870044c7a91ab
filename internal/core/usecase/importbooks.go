package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/core/ports"
)

// UploadImportUseCase stores an uploaded reading-history export and hands it
// to the worker through the queue.
type UploadImportUseCase struct {
	jobs    ports.ImportJobRepository
	storage ports.ImportStorage
	queue   ports.ImportQueue
}

func NewUploadImportUseCase(
	jobs ports.ImportJobRepository,
	storage ports.ImportStorage,
	queue ports.ImportQueue,
) *UploadImportUseCase {
	return &UploadImportUseCase{
		jobs:    jobs,
		storage: storage,
		queue:   queue,
	}
}

func (uc *UploadImportUseCase) Upload(ctx context.Context, filename string, body io.Reader) (*domain.ImportJob, error) {
	format := exportFormat(filename)
	if format == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload import", fmt.Errorf("unsupported export format: %s", filename))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s.%s", id, format)
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save export file: %w", err)
	}

	job := &domain.ImportJob{
		ID:          id,
		Filename:    filename,
		Format:      format,
		StoragePath: storageKey,
		Status:      domain.ImportUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	if err := uc.queue.PublishImportRequested(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("publish import event: %w", err)
	}
	return job, nil
}

func exportFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".xlsx":
		return "xlsx"
	default:
		return ""
	}
}

// ProcessImportUseCase runs on the worker: parse the stored export and fold
// its books into the library, skipping titles the user already owns.
type ProcessImportUseCase struct {
	jobs    ports.ImportJobRepository
	storage ports.ImportStorage
	parser  ports.ExportParser
	library ports.LibraryRepository
}

func NewProcessImportUseCase(
	jobs ports.ImportJobRepository,
	storage ports.ImportStorage,
	parser ports.ExportParser,
	library ports.LibraryRepository,
) *ProcessImportUseCase {
	return &ProcessImportUseCase{
		jobs:    jobs,
		storage: storage,
		parser:  parser,
		library: library,
	}
}

func (uc *ProcessImportUseCase) ProcessByID(ctx context.Context, jobID string) error {
	if err := uc.jobs.UpdateStatus(ctx, jobID, domain.ImportProcessing, 0, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	added, err := uc.processJob(ctx, jobID)
	if err != nil {
		if failErr := uc.jobs.UpdateStatus(ctx, jobID, domain.ImportFailed, added, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.jobs.UpdateStatus(ctx, jobID, domain.ImportReady, added, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessImportUseCase) processJob(ctx context.Context, jobID string) (int, error) {
	job, err := uc.jobs.GetByID(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("fetch import job: %w", err)
	}

	file, err := uc.storage.Open(ctx, job.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("open export file: %w", err)
	}
	defer file.Close()

	books, err := uc.parser.Parse(file, job.Format)
	if err != nil {
		return 0, fmt.Errorf("parse export: %w", err)
	}
	if len(books) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse export", errors.New("no usable rows in export"))
	}

	existing, err := uc.library.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load library: %w", err)
	}
	owned := make(map[string]struct{}, len(existing))
	for _, book := range existing {
		owned[IdentityKey(book.Title, book.Author)] = struct{}{}
	}

	added := 0
	now := time.Now().UTC()
	for _, book := range books {
		key := IdentityKey(book.Title, book.Author)
		if _, ok := owned[key]; ok {
			continue
		}
		book.ID = uuid.NewString()
		book.AddedAt = now
		book.UpdatedAt = now
		if err := uc.library.Add(ctx, &book); err != nil {
			return added, fmt.Errorf("add imported book %q: %w", book.Title, err)
		}
		owned[key] = struct{}{}
		added++
	}

	if err := uc.storage.Remove(ctx, job.StoragePath); err != nil {
		slog.Warn("import: could not remove processed export file", "job_id", jobID, "error", err)
	}
	return added, nil
}
