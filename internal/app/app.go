package app

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"mailsnap/pkg/domain"
	"mailsnap/pkg/events"
	"mailsnap/pkg/storage"
	"mailsnap/pkg/store"
)

// EventPublisher receives the outcome of each finished batch.
type EventPublisher interface {
	PublishSessionFinalized(events.SessionEvent) error
}

// UploadedFile is one file from a snapshot upload, already read into memory.
type UploadedFile struct {
	Name string
	Data []byte
}

// App wires ingestion and read-side queries over the store. Archive, events
// and counts are optional; a nil value disables that concern.
type App struct {
	store    store.Store
	registry *processorRegistry
	resolver *entityResolver
	archive  storage.SnapshotArchive
	events   EventPublisher
	counts   *store.CountCache
}

// Config carries the App's collaborators.
type Config struct {
	Store   store.Store
	Archive storage.SnapshotArchive
	Events  EventPublisher
	Counts  *store.CountCache
}

func New(cfg Config) *App {
	resolver := newEntityResolver(cfg.Store)
	registry := newProcessorRegistry(
		newMessagesProcessor(cfg.Store, resolver),
		newFoldersProcessor(cfg.Store),
	)
	return &App{
		store:    cfg.Store,
		registry: registry,
		resolver: resolver,
		archive:  cfg.Archive,
		events:   cfg.Events,
		counts:   cfg.Counts,
	}
}

// IngestBatch processes a set of uploaded snapshot files as one session.
// Files are independent: a failure in one never stops the others. Any
// failure that escapes the per-file boundary is caught here and reported as
// an ERROR batch rather than crashing the server.
func (a *App) IngestBatch(ctx context.Context, files []UploadedFile, uploadedBy, notes string) (result domain.UploadResult) {
	tracker := newSessionTracker(len(files), uploadedBy, notes)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("batch processing panicked", "session", tracker.Session().Token, "panic", r)
			tracker.AppendError(fmt.Sprintf("internal error: %v", r))
			tracker.Finalize()
			a.persistSession(tracker)
			sess := tracker.Session()
			result = domain.UploadResult{
				SessionID:     sess.Token,
				Status:        domain.BatchError,
				Message:       "Internal error during batch processing",
				Errors:        sess.ErrorCount,
				ErrorMessages: sess.ErrorMessages,
			}
		}
	}()

	totalCreated := 0
	for _, f := range files {
		rec := tracker.RecordFile(f.Name, fileTypeTag(f.Name))
		a.archiveSnapshot(ctx, tracker.Session().Token, f)

		proc := a.registry.Find(f.Name)
		if proc == nil {
			msg := "No processor found for file: " + f.Name
			slog.Warn("unmatched upload file", "file", f.Name)
			tracker.MarkFileFailed(rec, msg)
			tracker.AppendError(msg)
			tracker.IncrementErrors()
			tracker.IncrementProcessed()
			continue
		}

		created, err := proc.Process(f.Name, f.Data, tracker)
		if err != nil {
			msg := fmt.Sprintf("Error processing %s: %v", f.Name, err)
			slog.Error("file processing failed", "file", f.Name, "err", err)
			tracker.MarkFileFailed(rec, msg)
			tracker.AppendError(msg)
			tracker.IncrementErrors()
			tracker.IncrementProcessed()
			continue
		}

		tracker.MarkFileSuccess(rec, created)
		tracker.IncrementProcessed()
		totalCreated += created
	}

	tracker.Finalize()
	a.persistSession(tracker)

	sess := tracker.Session()
	a.publishOutcome(sess, totalCreated)
	if totalCreated > 0 {
		a.counts.InvalidateAll()
	}

	status := domain.BatchCompleted
	if sess.Status == domain.SessionFailed {
		status = domain.BatchFailed
	}
	return domain.UploadResult{
		SessionID:      sess.Token,
		Status:         status,
		Message:        fmt.Sprintf("Processed %d files, created %d records", tracker.SuccessCount(), totalCreated),
		FilesProcessed: tracker.SuccessCount(),
		RecordsCreated: totalCreated,
		Errors:         sess.ErrorCount,
		ErrorMessages:  sess.ErrorMessages,
	}
}

// GetSession returns the audit record of a past batch.
func (a *App) GetSession(token string) (domain.UploadSession, bool, error) {
	return a.store.GetSession(token)
}

// persistSession saves the session audit record. Persistence trouble is
// logged but never turns a processed batch into a failure for the caller.
func (a *App) persistSession(tracker *sessionTracker) {
	if err := a.store.SaveSession(tracker.Session()); err != nil {
		slog.Error("save session failed", "session", tracker.Session().Token, "err", err)
	}
}

// archiveSnapshot keeps the raw document for forensics, best effort.
func (a *App) archiveSnapshot(ctx context.Context, token string, f UploadedFile) {
	if a.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	key := path.Join("sessions", token, f.Name)
	if err := a.archive.Put(ctx, key, f.Data, "application/json"); err != nil {
		slog.Warn("archive snapshot failed", "key", key, "err", err)
	}
}

func (a *App) publishOutcome(sess domain.UploadSession, created int) {
	if a.events == nil {
		return
	}
	ev := events.SessionEvent{
		Token:          sess.Token,
		Status:         string(sess.Status),
		FilesProcessed: sess.ProcessedFiles,
		RecordsCreated: created,
		Errors:         sess.ErrorCount,
	}
	if err := a.events.PublishSessionFinalized(ev); err != nil {
		slog.Warn("publish session event failed", "session", sess.Token, "err", err)
	}
}
