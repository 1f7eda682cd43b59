package domain

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionFailed     SessionStatus = "FAILED"
)

type FileStatus string

const (
	FilePending FileStatus = "PENDING"
	FileSuccess FileStatus = "SUCCESS"
	FileFailed  FileStatus = "FAILED"
)

// BatchStatus is the overall outcome reported to the uploader. ERROR is
// reserved for a failure that escaped the whole-batch boundary; FAILED means
// the batch ran to completion with zero successful files.
type BatchStatus string

const (
	BatchCompleted BatchStatus = "COMPLETED"
	BatchFailed    BatchStatus = "FAILED"
	BatchError     BatchStatus = "ERROR"
)

// Participant is a mailbox user referenced by messages. The natural key is
// UserID; a row is created at most once per key and never overwritten by
// later imports (first-writer-wins).
type Participant struct {
	UserID          int64     `json:"userId"`
	Username        string    `json:"name"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	DisplayInitials string    `json:"displayInitials"`
	AvatarColor     string    `json:"color"`
	Active          bool      `json:"active"`
	UserType        string    `json:"type"`
	Locale          string    `json:"-"`
	TimeZone        string    `json:"-"`
	CreatedAt       time.Time `json:"-"`
}

// FullName joins first and last name, falling back to the username.
func (p Participant) FullName() string {
	if p.FirstName != "" && p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	return p.Username
}

type Folder struct {
	FolderID     int64     `json:"id"`
	Name         string    `json:"name"`
	FolderType   string    `json:"folderType"`
	FolderOrder  int       `json:"folderOrder"`
	SystemFolder bool      `json:"systemFolder"`
	OwnerUserID  *int64    `json:"ownerUserId,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

type Message struct {
	MessageID   int64         `json:"id"`
	FolderID    int64         `json:"folder"`
	Subject     string        `json:"subject"`
	Preview     string        `json:"preview"`
	Body        string        `json:"body"`
	Draft       bool          `json:"draft"`
	Read        bool          `json:"read"`
	Replied     bool          `json:"replied"`
	CanReply    bool          `json:"canReply"`
	Author      Participant   `json:"author"`
	Recipients  []Participant `json:"recipients"`
	Attachments []Attachment  `json:"attachments"`
	MessageDate time.Time     `json:"messageDate"`
	CreatedAt   time.Time     `json:"-"`
}

// Attachment holds file metadata only; binary content is never stored.
type Attachment struct {
	FileName    string `json:"name"`
	FileSize    int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// UploadSession is the audit record of one ingestion batch.
type UploadSession struct {
	Token          string        `json:"sessionId"`
	UploadedBy     string        `json:"uploadedBy,omitempty"`
	Status         SessionStatus `json:"status"`
	TotalFiles     int           `json:"totalFiles"`
	ProcessedFiles int           `json:"processedFiles"`
	ErrorCount     int           `json:"errorCount"`
	Notes          string        `json:"notes,omitempty"`
	Files          []*UploadFile `json:"files"`
	ErrorMessages  []string      `json:"errorMessages,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
}

// UploadFile tracks one file inside a session. Status is monotonic: PENDING
// until processing finishes, then SUCCESS or FAILED, never back.
type UploadFile struct {
	FileName       string     `json:"fileName"`
	FileType       string     `json:"fileType"`
	Status         FileStatus `json:"status"`
	RecordsCreated int        `json:"recordsCreated"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
}

// UploadResult is returned to the uploader after a batch. FilesProcessed
// counts files that reached SUCCESS; Errors counts file-level failures.
// Record-level errors appear in ErrorMessages but do not bump Errors.
type UploadResult struct {
	SessionID      string      `json:"sessionId"`
	Status         BatchStatus `json:"status"`
	Message        string      `json:"message"`
	FilesProcessed int         `json:"filesProcessed"`
	RecordsCreated int         `json:"recordsCreated"`
	Errors         int         `json:"errors"`
	ErrorMessages  []string    `json:"errorMessages"`
}
