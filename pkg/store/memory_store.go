package store

import (
	"sort"
	"strings"
	"sync"

	"mailsnap/pkg/domain"
)

// MemoryStore keeps everything in-process. It mirrors the Postgres store's
// natural-key semantics, including ErrDuplicateKey on conflicting inserts,
// and is used by tests.
type MemoryStore struct {
	mu           sync.RWMutex
	participants map[int64]domain.Participant
	folders      map[int64]domain.Folder
	folderOrder  []int64
	messages     map[int64]domain.Message
	messageOrder []int64
	sessions     map[string]domain.UploadSession
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[int64]domain.Participant),
		folders:      make(map[int64]domain.Folder),
		messages:     make(map[int64]domain.Message),
		sessions:     make(map[string]domain.UploadSession),
	}
}

func (m *MemoryStore) GetParticipant(userID int64) (domain.Participant, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[userID]
	return p, ok, nil
}

func (m *MemoryStore) CreateParticipant(p domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.participants[p.UserID]; exists {
		return ErrDuplicateKey
	}
	m.participants[p.UserID] = p
	return nil
}

func (m *MemoryStore) GetFolder(folderID int64) (domain.Folder, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.folders[folderID]
	return f, ok, nil
}

func (m *MemoryStore) CreateFolder(f domain.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.folders[f.FolderID]; exists {
		return ErrDuplicateKey
	}
	m.folders[f.FolderID] = f
	m.folderOrder = append(m.folderOrder, f.FolderID)
	return nil
}

func (m *MemoryStore) ListFolders() ([]domain.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	folders := make([]domain.Folder, 0, len(m.folderOrder))
	for _, id := range m.folderOrder {
		if f, ok := m.folders[id]; ok {
			folders = append(folders, f)
		}
	}
	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].FolderOrder != folders[j].FolderOrder {
			return folders[i].FolderOrder < folders[j].FolderOrder
		}
		return folders[i].FolderID < folders[j].FolderID
	})
	return folders, nil
}

func (m *MemoryStore) HasMessage(messageID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.messages[messageID]
	return ok, nil
}

func (m *MemoryStore) CreateMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.messages[msg.MessageID]; exists {
		return ErrDuplicateKey
	}
	// Deduplicate recipients by natural key, preserving first occurrence.
	seen := make(map[int64]struct{}, len(msg.Recipients))
	recipients := make([]domain.Participant, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		if _, dup := seen[r.UserID]; dup {
			continue
		}
		seen[r.UserID] = struct{}{}
		recipients = append(recipients, r)
	}
	msg.Recipients = recipients
	m.messages[msg.MessageID] = msg
	m.messageOrder = append(m.messageOrder, msg.MessageID)
	return nil
}

func (m *MemoryStore) GetMessage(messageID int64) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[messageID]
	return msg, ok, nil
}

func (m *MemoryStore) ListMessages(q MessageQuery) ([]domain.Message, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]domain.Message, 0, len(m.messageOrder))
	for _, id := range m.messageOrder {
		msg, ok := m.messages[id]
		if !ok {
			continue
		}
		if q.FolderID != nil && msg.FolderID != *q.FolderID {
			continue
		}
		matched = append(matched, msg)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch q.SortField {
		case "subject":
			less = strings.Compare(matched[i].Subject, matched[j].Subject) < 0
		default:
			less = matched[i].MessageDate.Before(matched[j].MessageDate)
		}
		if q.Desc {
			return !less
		}
		return less
	})
	total := int64(len(matched))
	start := q.Page * q.Size
	if start >= len(matched) {
		return []domain.Message{}, total, nil
	}
	end := start + q.Size
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]domain.Message, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (m *MemoryStore) SetMessageRead(messageID int64, read bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return ErrNotFound
	}
	msg.Read = read
	m.messages[messageID] = msg
	return nil
}

func (m *MemoryStore) DeleteMessage(messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[messageID]; !ok {
		return ErrNotFound
	}
	delete(m.messages, messageID)
	filtered := m.messageOrder[:0]
	for _, id := range m.messageOrder {
		if id != messageID {
			filtered = append(filtered, id)
		}
	}
	m.messageOrder = filtered
	return nil
}

func (m *MemoryStore) CountMessages(folderID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, msg := range m.messages {
		if msg.FolderID == folderID {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) CountUnread(folderID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, msg := range m.messages {
		if msg.FolderID == folderID && !msg.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) SaveSession(session domain.UploadSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Copy the file list so later tracker mutations don't leak in.
	files := make([]*domain.UploadFile, len(session.Files))
	for i, f := range session.Files {
		clone := *f
		files[i] = &clone
	}
	session.Files = files
	m.sessions[session.Token] = session
	return nil
}

func (m *MemoryStore) GetSession(token string) (domain.UploadSession, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	return s, ok, nil
}
