package app

import (
	"time"

	"github.com/google/uuid"

	"mailsnap/pkg/domain"
)

// sessionTracker owns the aggregate outcome of exactly one batch. It is
// never shared across batches; the orchestrator threads it through the
// processing of each file and finalizes it once at the end.
type sessionTracker struct {
	session   domain.UploadSession
	finalized bool
}

func newSessionTracker(totalFiles int, uploadedBy, notes string) *sessionTracker {
	return &sessionTracker{
		session: domain.UploadSession{
			Token:      uuid.NewString(),
			UploadedBy: uploadedBy,
			Status:     domain.SessionInProgress,
			TotalFiles: totalFiles,
			Notes:      notes,
			CreatedAt:  time.Now().UTC(),
		},
	}
}

// RecordFile appends a PENDING entry for a file about to be processed.
func (t *sessionTracker) RecordFile(fileName, fileType string) *domain.UploadFile {
	rec := &domain.UploadFile{
		FileName: fileName,
		FileType: fileType,
		Status:   domain.FilePending,
	}
	t.session.Files = append(t.session.Files, rec)
	return rec
}

// MarkFileSuccess transitions a PENDING record to SUCCESS. Terminal states
// are never overwritten.
func (t *sessionTracker) MarkFileSuccess(rec *domain.UploadFile, recordsCreated int) {
	if rec.Status != domain.FilePending {
		return
	}
	now := time.Now().UTC()
	rec.Status = domain.FileSuccess
	rec.RecordsCreated = recordsCreated
	rec.ProcessedAt = &now
}

// MarkFileFailed transitions a PENDING record to FAILED with a message.
func (t *sessionTracker) MarkFileFailed(rec *domain.UploadFile, message string) {
	if rec.Status != domain.FilePending {
		return
	}
	now := time.Now().UTC()
	rec.Status = domain.FileFailed
	rec.ErrorMessage = message
	rec.ProcessedAt = &now
}

// IncrementProcessed bumps the processed-file counter; called once per file
// regardless of outcome.
func (t *sessionTracker) IncrementProcessed() {
	t.session.ProcessedFiles++
}

// IncrementErrors bumps the error counter; called once per file-level
// failure. Record-level errors do not reach this counter.
func (t *sessionTracker) IncrementErrors() {
	t.session.ErrorCount++
}

// AppendError adds a literal error string to the batch-level list.
func (t *sessionTracker) AppendError(message string) {
	t.session.ErrorMessages = append(t.session.ErrorMessages, message)
}

// SuccessCount reports how many files reached SUCCESS.
func (t *sessionTracker) SuccessCount() int {
	var n int
	for _, f := range t.session.Files {
		if f.Status == domain.FileSuccess {
			n++
		}
	}
	return n
}

// Finalize settles the terminal session status exactly once. The session
// fails only when no file at all succeeded; a batch with some failing files
// and at least one success is still COMPLETED, with partial success
// reported through the error count.
func (t *sessionTracker) Finalize() {
	if t.finalized {
		return
	}
	t.finalized = true
	now := time.Now().UTC()
	if t.SuccessCount() == 0 && t.session.TotalFiles > 0 {
		t.session.Status = domain.SessionFailed
		t.session.Notes = "All files failed to process"
	} else {
		t.session.Status = domain.SessionCompleted
	}
	t.session.CompletedAt = &now
}

// Session returns the current aggregate snapshot.
func (t *sessionTracker) Session() domain.UploadSession {
	return t.session
}
