package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

type importJobsFake struct {
	jobs     map[string]*domain.ImportJob
	statuses []domain.ImportStatus
	lastErr  string
}

func newImportJobsFake() *importJobsFake {
	return &importJobsFake{jobs: map[string]*domain.ImportJob{}}
}

func (f *importJobsFake) Create(_ context.Context, job *domain.ImportJob) error {
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *importJobsFake) GetByID(_ context.Context, id string) (*domain.ImportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrImportJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *importJobsFake) UpdateStatus(_ context.Context, id string, status domain.ImportStatus, booksAdded int, errMessage string) error {
	f.statuses = append(f.statuses, status)
	f.lastErr = errMessage
	if job, ok := f.jobs[id]; ok {
		job.Status = status
		job.BooksAdded = booksAdded
		job.Error = errMessage
	}
	return nil
}

type importStorageFake struct {
	files   map[string][]byte
	removed []string
}

func newImportStorageFake() *importStorageFake {
	return &importStorageFake{files: map[string][]byte{}}
}

func (f *importStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = raw
	return nil
}

func (f *importStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.files[key]
	if !ok {
		return nil, errors.New("missing file")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *importStorageFake) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	delete(f.files, key)
	return nil
}

type importQueueFake struct {
	published []string
}

func (f *importQueueFake) PublishImportRequested(_ context.Context, jobID string) error {
	f.published = append(f.published, jobID)
	return nil
}

func (f *importQueueFake) SubscribeImportRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type parserFake struct {
	books  []domain.Book
	err    error
	format string
}

func (f *parserFake) Parse(_ io.Reader, format string) ([]domain.Book, error) {
	f.format = format
	return f.books, f.err
}

func TestUploadCreatesJobAndPublishes(t *testing.T) {
	jobs := newImportJobsFake()
	storage := newImportStorageFake()
	queue := &importQueueFake{}
	uc := NewUploadImportUseCase(jobs, storage, queue)

	job, err := uc.Upload(context.Background(), "goodreads_library_export.csv", strings.NewReader("Title,Author\n"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if job.Status != domain.ImportUploaded || job.Format != "csv" {
		t.Fatalf("unexpected job %+v", job)
	}
	if _, ok := storage.files[job.StoragePath]; !ok {
		t.Fatalf("export file not stored under %q", job.StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != job.ID {
		t.Fatalf("expected published job id, got %v", queue.published)
	}
	if _, err := jobs.GetByID(context.Background(), job.ID); err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	uc := NewUploadImportUseCase(newImportJobsFake(), newImportStorageFake(), &importQueueFake{})

	if _, err := uc.Upload(context.Background(), "export.pdf", strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func seedUploadedJob(t *testing.T, jobs *importJobsFake, storage *importStorageFake) *domain.ImportJob {
	t.Helper()
	job := &domain.ImportJob{
		ID:          "job-1",
		Filename:    "export.csv",
		Format:      "csv",
		StoragePath: "job-1.csv",
		Status:      domain.ImportUploaded,
		CreatedAt:   time.Now().UTC(),
	}
	if err := jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := storage.Save(context.Background(), job.StoragePath, strings.NewReader("raw export")); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	return job
}

func TestProcessByIDSkipsOwnedAndMarksReady(t *testing.T) {
	jobs := newImportJobsFake()
	storage := newImportStorageFake()
	library := &libraryFake{books: []domain.Book{
		{ID: "b-1", Title: "Dune", Author: "Frank Herbert", Rating: 5},
	}}
	parser := &parserFake{books: []domain.Book{
		{Title: "Dune", Author: "Frank Herbert", Rating: 4},
		{Title: "Hyperion", Author: "Dan Simmons", Rating: 4.5},
	}}
	job := seedUploadedJob(t, jobs, storage)

	uc := NewProcessImportUseCase(jobs, storage, parser, library)
	if err := uc.ProcessByID(context.Background(), job.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := jobs.GetByID(context.Background(), job.ID)
	if got.Status != domain.ImportReady {
		t.Fatalf("expected ready status, got %s", got.Status)
	}
	if got.BooksAdded != 1 {
		t.Fatalf("expected 1 book added after dedup, got %d", got.BooksAdded)
	}
	if parser.format != "csv" {
		t.Fatalf("expected csv format hint, got %q", parser.format)
	}
	if len(library.books) != 2 {
		t.Fatalf("expected library to grow to 2, got %d", len(library.books))
	}
	if len(storage.removed) != 1 || storage.removed[0] != job.StoragePath {
		t.Fatalf("expected processed file removed, got %v", storage.removed)
	}
}

func TestProcessByIDMarksFailedOnParseError(t *testing.T) {
	jobs := newImportJobsFake()
	storage := newImportStorageFake()
	parser := &parserFake{err: domain.WrapError(domain.ErrParseFailure, "parse export", errors.New("bad header"))}
	job := seedUploadedJob(t, jobs, storage)

	uc := NewProcessImportUseCase(jobs, storage, parser, &libraryFake{})
	if err := uc.ProcessByID(context.Background(), job.ID); err == nil {
		t.Fatalf("expected processing error")
	}

	got, _ := jobs.GetByID(context.Background(), job.ID)
	if got.Status != domain.ImportFailed {
		t.Fatalf("expected failed status, got %s", got.Status)
	}
	if got.Error == "" {
		t.Fatalf("expected failure message persisted")
	}
}

func TestProcessByIDFailsOnEmptyExport(t *testing.T) {
	jobs := newImportJobsFake()
	storage := newImportStorageFake()
	job := seedUploadedJob(t, jobs, storage)

	uc := NewProcessImportUseCase(jobs, storage, &parserFake{}, &libraryFake{})
	err := uc.ProcessByID(context.Background(), job.ID)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty export, got %v", err)
	}

	got, _ := jobs.GetByID(context.Background(), job.ID)
	if got.Status != domain.ImportFailed {
		t.Fatalf("expected failed status, got %s", got.Status)
	}
}
