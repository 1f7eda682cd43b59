package store

import "mailsnap/pkg/domain"

// MessageQuery selects a page of messages for the listing API.
type MessageQuery struct {
	FolderID  *int64
	Page      int
	Size      int
	SortField string
	Desc      bool
}

// Store defines natural-key persistence for participants, folders, messages,
// and upload sessions. All keys are caller-supplied identifiers from the
// snapshot format; uniqueness is enforced by the implementation so that two
// batches racing to create the same row resolve via ErrDuplicateKey.
type Store interface {
	// participants
	GetParticipant(userID int64) (domain.Participant, bool, error)
	CreateParticipant(domain.Participant) error

	// folders
	GetFolder(folderID int64) (domain.Folder, bool, error)
	CreateFolder(domain.Folder) error
	ListFolders() ([]domain.Folder, error)

	// messages
	HasMessage(messageID int64) (bool, error)
	CreateMessage(domain.Message) error
	GetMessage(messageID int64) (domain.Message, bool, error)
	ListMessages(q MessageQuery) ([]domain.Message, int64, error)
	SetMessageRead(messageID int64, read bool) error
	DeleteMessage(messageID int64) error
	CountMessages(folderID int64) (int64, error)
	CountUnread(folderID int64) (int64, error)

	// sessions
	SaveSession(domain.UploadSession) error
	GetSession(token string) (domain.UploadSession, bool, error)
}
