package app

import (
	"context"
	"strings"
	"testing"

	"mailsnap/pkg/domain"
	"mailsnap/pkg/events"
	"mailsnap/pkg/store"
)

type capturedEvents struct {
	published []events.SessionEvent
}

func (c *capturedEvents) PublishSessionFinalized(ev events.SessionEvent) error {
	c.published = append(c.published, ev)
	return nil
}

func validMessagesDoc() []byte {
	return []byte(`{"data": [{
		"id": 1, "folder": 1, "subject": "Hello",
		"author": {"userId": 10, "name": "dana"},
		"date": {"dateTime": "2024-06-01T12:00:00"}
	}]}`)
}

func validFoldersDoc() []byte {
	return []byte(`{
		"systemFolders": [{"id": 1, "name": "Inbox", "folderType": "INBOX"}],
		"userFolders": []
	}`)
}

func TestIngestBatchMixedFiles(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &capturedEvents{}
	a := New(Config{Store: st, Events: sink})

	result := a.IngestBatch(context.Background(), []UploadedFile{
		{Name: "folders.json", Data: validFoldersDoc()},
		{Name: "messages.json", Data: validMessagesDoc()},
		{Name: "cookies.json", Data: []byte(`{}`)},
	}, "tester", "first import")

	if result.Status != domain.BatchCompleted {
		t.Fatalf("status = %v, want COMPLETED", result.Status)
	}
	if result.FilesProcessed != 2 {
		t.Fatalf("filesProcessed = %d, want 2", result.FilesProcessed)
	}
	if result.RecordsCreated != 2 {
		t.Fatalf("recordsCreated = %d, want 2", result.RecordsCreated)
	}
	if result.Errors != 1 {
		t.Fatalf("errors = %d, want 1", result.Errors)
	}
	if len(result.ErrorMessages) != 1 || !strings.Contains(result.ErrorMessages[0], "cookies.json") {
		t.Fatalf("errorMessages = %v", result.ErrorMessages)
	}

	sess, found, err := a.GetSession(result.SessionID)
	if err != nil || !found {
		t.Fatalf("GetSession(%q) found=%v err=%v", result.SessionID, found, err)
	}
	if sess.Status != domain.SessionCompleted {
		t.Fatalf("session status = %v, want COMPLETED", sess.Status)
	}
	if sess.TotalFiles != 3 || sess.ProcessedFiles != 3 {
		t.Fatalf("session files = %d/%d, want 3/3", sess.ProcessedFiles, sess.TotalFiles)
	}
	if sess.UploadedBy != "tester" || sess.Notes != "first import" {
		t.Fatalf("session meta = %q/%q", sess.UploadedBy, sess.Notes)
	}
	if len(sess.Files) != 3 {
		t.Fatalf("session file records = %d, want 3", len(sess.Files))
	}
	if sess.Files[2].Status != domain.FileFailed {
		t.Fatalf("cookies file status = %v, want FAILED", sess.Files[2].Status)
	}

	if len(sink.published) != 1 {
		t.Fatalf("published events = %d, want 1", len(sink.published))
	}
	ev := sink.published[0]
	if ev.Token != result.SessionID || ev.RecordsCreated != 2 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestIngestBatchAllFilesFail(t *testing.T) {
	a := New(Config{Store: store.NewMemoryStore()})

	result := a.IngestBatch(context.Background(), []UploadedFile{
		{Name: "unknown.bin", Data: []byte(`xx`)},
		{Name: "messages.json", Data: []byte(`broken`)},
	}, "", "")

	if result.Status != domain.BatchFailed {
		t.Fatalf("status = %v, want FAILED", result.Status)
	}
	if result.FilesProcessed != 0 {
		t.Fatalf("filesProcessed = %d, want 0", result.FilesProcessed)
	}
	if result.Errors != 2 {
		t.Fatalf("errors = %d, want 2", result.Errors)
	}

	sess, found, _ := a.GetSession(result.SessionID)
	if !found || sess.Status != domain.SessionFailed {
		t.Fatalf("session found=%v status=%v, want FAILED", found, sess.Status)
	}
}

func TestIngestBatchIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	a := New(Config{Store: st})
	files := []UploadedFile{
		{Name: "folders.json", Data: validFoldersDoc()},
		{Name: "messages.json", Data: validMessagesDoc()},
	}

	first := a.IngestBatch(context.Background(), files, "", "")
	if first.RecordsCreated != 2 {
		t.Fatalf("first run created = %d, want 2", first.RecordsCreated)
	}

	second := a.IngestBatch(context.Background(), files, "", "")
	if second.Status != domain.BatchCompleted {
		t.Fatalf("replay status = %v, want COMPLETED", second.Status)
	}
	if second.RecordsCreated != 0 {
		t.Fatalf("replay created = %d, want 0", second.RecordsCreated)
	}
	if second.Errors != 0 {
		t.Fatalf("replay errors = %d, want 0", second.Errors)
	}
	if second.SessionID == first.SessionID {
		t.Fatal("replay reused the session token")
	}

	msgs, total, err := st.ListMessages(store.MessageQuery{Page: 0, Size: 10})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 1 || len(msgs) != 1 {
		t.Fatalf("messages after replay = %d (total %d), want 1", len(msgs), total)
	}
}

func TestIngestBatchRecordErrorsDoNotFailFile(t *testing.T) {
	a := New(Config{Store: store.NewMemoryStore()})

	doc := []byte(`{"data": [
		{"id": 1, "folder": 1, "subject": "ok",
		 "author": {"userId": 10}, "date": {"dateTime": "2024-06-01T12:00:00"}},
		{"id": 2, "folder": 1, "subject": "missing author",
		 "date": {"dateTime": "2024-06-01T12:05:00"}}
	]}`)
	result := a.IngestBatch(context.Background(), []UploadedFile{{Name: "messages.json", Data: doc}}, "", "")

	if result.Status != domain.BatchCompleted {
		t.Fatalf("status = %v, want COMPLETED", result.Status)
	}
	if result.FilesProcessed != 1 {
		t.Fatalf("filesProcessed = %d, want 1", result.FilesProcessed)
	}
	if result.RecordsCreated != 1 {
		t.Fatalf("recordsCreated = %d, want 1", result.RecordsCreated)
	}
	if result.Errors != 0 {
		t.Fatalf("errors = %d, record errors must not count as file failures", result.Errors)
	}
	if len(result.ErrorMessages) != 1 {
		t.Fatalf("errorMessages = %v, want one record error", result.ErrorMessages)
	}
}

type faultyStore struct {
	store.Store
}

func (faultyStore) HasMessage(int64) (bool, error) {
	panic("store connection lost")
}

func TestIngestBatchSurvivesPanicInProcessing(t *testing.T) {
	backing := store.NewMemoryStore()
	a := New(Config{Store: faultyStore{Store: backing}})

	result := a.IngestBatch(context.Background(), []UploadedFile{
		{Name: "messages.json", Data: validMessagesDoc()},
	}, "tester", "")

	if result.Status != domain.BatchError {
		t.Fatalf("status = %v, want ERROR", result.Status)
	}
	if result.Message != "Internal error during batch processing" {
		t.Fatalf("message = %q", result.Message)
	}
	if len(result.ErrorMessages) != 1 || !strings.Contains(result.ErrorMessages[0], "store connection lost") {
		t.Fatalf("errorMessages = %v", result.ErrorMessages)
	}

	sess, found, err := backing.GetSession(result.SessionID)
	if err != nil || !found {
		t.Fatalf("GetSession(%q) found=%v err=%v", result.SessionID, found, err)
	}
	if len(sess.ErrorMessages) != 1 {
		t.Fatalf("persisted errorMessages = %v, want the aggregated error", sess.ErrorMessages)
	}
	if sess.CompletedAt == nil {
		t.Fatal("session not finalized after recovery")
	}
}

func TestIngestBatchEmpty(t *testing.T) {
	a := New(Config{Store: store.NewMemoryStore()})
	result := a.IngestBatch(context.Background(), nil, "", "")
	if result.Status != domain.BatchCompleted {
		t.Fatalf("status = %v, want COMPLETED", result.Status)
	}
	if result.RecordsCreated != 0 || result.Errors != 0 {
		t.Fatalf("result = %+v", result)
	}
}
