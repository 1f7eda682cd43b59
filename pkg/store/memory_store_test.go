package store

import (
	"errors"
	"testing"
	"time"

	"mailsnap/pkg/domain"
)

func TestMemoryStoreDuplicateKeys(t *testing.T) {
	st := NewMemoryStore()
	p := domain.Participant{UserID: 1, Username: "ana"}
	if err := st.CreateParticipant(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateParticipant(p); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	f := domain.Folder{FolderID: 1, Name: "Inbox"}
	if err := st.CreateFolder(f); err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if err := st.CreateFolder(f); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("folder err = %v, want ErrDuplicateKey", err)
	}

	m := domain.Message{MessageID: 1, FolderID: 1, Subject: "a", MessageDate: time.Now()}
	if err := st.CreateMessage(m); err != nil {
		t.Fatalf("create message: %v", err)
	}
	if err := st.CreateMessage(m); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("message err = %v, want ErrDuplicateKey", err)
	}
}

func TestMemoryStoreListMessagesSorting(t *testing.T) {
	st := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subjects := []string{"bravo", "alpha", "charlie"}
	for i, subj := range subjects {
		err := st.CreateMessage(domain.Message{
			MessageID:   int64(i + 1),
			FolderID:    1,
			Subject:     subj,
			MessageDate: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	msgs, total, err := st.ListMessages(MessageQuery{Page: 0, Size: 10, SortField: "subject", Desc: false})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d", total)
	}
	if msgs[0].Subject != "alpha" || msgs[2].Subject != "charlie" {
		t.Fatalf("subject order = %v %v %v", msgs[0].Subject, msgs[1].Subject, msgs[2].Subject)
	}

	msgs, _, err = st.ListMessages(MessageQuery{Page: 0, Size: 10, SortField: "messageDate", Desc: true})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if msgs[0].MessageID != 3 {
		t.Fatalf("newest first = %d, want 3", msgs[0].MessageID)
	}

	msgs, total, err = st.ListMessages(MessageQuery{Page: 5, Size: 10})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 3 || len(msgs) != 0 {
		t.Fatalf("out of range page = %d items, total %d", len(msgs), total)
	}
}

func TestMemoryStoreSessionRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	file := &domain.UploadFile{FileName: "messages.json", FileType: "MESSAGES", Status: domain.FilePending}
	sess := domain.UploadSession{
		Token:      "tok-1",
		Status:     domain.SessionInProgress,
		TotalFiles: 1,
		Files:      []*domain.UploadFile{file},
		CreatedAt:  time.Now().UTC(),
	}
	if err := st.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	// Mutations after save must not leak into the stored copy.
	file.Status = domain.FileSuccess

	got, found, err := st.GetSession("tok-1")
	if err != nil || !found {
		t.Fatalf("GetSession found=%v err=%v", found, err)
	}
	if got.Files[0].Status != domain.FilePending {
		t.Fatalf("stored file status = %v, want PENDING snapshot", got.Files[0].Status)
	}

	sess.Status = domain.SessionCompleted
	if err := st.SaveSession(sess); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _, _ = st.GetSession("tok-1")
	if got.Status != domain.SessionCompleted {
		t.Fatalf("status = %v, want COMPLETED after upsert", got.Status)
	}
}
