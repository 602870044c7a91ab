package domain

import "time"

type ImportStatus string

const (
	ImportUploaded   ImportStatus = "uploaded"
	ImportProcessing ImportStatus = "processing"
	ImportReady      ImportStatus = "ready"
	ImportFailed     ImportStatus = "failed"
)

// ImportJob tracks one uploaded reading-history export through the worker
// pipeline.
type ImportJob struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	Format      string       `json:"format"`
	StoragePath string       `json:"storage_path"`
	Status      ImportStatus `json:"status"`
	BooksAdded  int          `json:"books_added"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
