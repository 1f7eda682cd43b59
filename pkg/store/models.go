package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Natural keys carry unique indexes so
// concurrent get-or-create resolves at the database.
type ParticipantModel struct {
	ID              uint  `gorm:"primaryKey"`
	UserID          int64 `gorm:"uniqueIndex;not null"`
	Username        string
	FirstName       string
	LastName        string
	DisplayInitials string
	AvatarColor     string
	Active          bool
	UserType        string
	Locale          string
	TimeZone        string
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time
}

type FolderModel struct {
	ID           uint   `gorm:"primaryKey"`
	FolderID     int64  `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	FolderType   string `gorm:"index"`
	FolderOrder  int
	SystemFolder bool
	OwnerUserID  *int64    `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type MessageModel struct {
	ID           uint   `gorm:"primaryKey"`
	MessageID    int64  `gorm:"uniqueIndex;not null"`
	FolderID     int64  `gorm:"index;not null"`
	AuthorUserID int64  `gorm:"index;not null"`
	Subject      string `gorm:"size:500"`
	Preview      string `gorm:"type:text"`
	Body         string `gorm:"type:text"`
	IsDraft      bool
	IsRead       bool `gorm:"index"`
	IsReplied    bool
	CanReply     bool
	MessageDate  time.Time `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

// RecipientModel joins messages to recipient participants by natural keys.
// The composite unique index gives the recipient list set semantics.
type RecipientModel struct {
	ID        uint  `gorm:"primaryKey"`
	MessageID int64 `gorm:"uniqueIndex:idx_message_recipient;not null"`
	UserID    int64 `gorm:"uniqueIndex:idx_message_recipient;not null"`
}

type AttachmentModel struct {
	ID          uint   `gorm:"primaryKey"`
	MessageID   int64  `gorm:"index;not null"`
	FileName    string `gorm:"not null"`
	FileSize    int64
	ContentType string
	CreatedAt   time.Time `gorm:"not null"`
}

type SessionModel struct {
	ID             uint   `gorm:"primaryKey"`
	Token          string `gorm:"uniqueIndex;not null"`
	UploadedBy     string
	Status         string `gorm:"index;not null"`
	TotalFiles     int
	ProcessedFiles int
	ErrorCount     int
	Notes          string         `gorm:"type:text"`
	ErrorMessages  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null"`
	CompletedAt    *time.Time
}

type SessionFileModel struct {
	ID             uint   `gorm:"primaryKey"`
	SessionToken   string `gorm:"index;not null"`
	Position       int    `gorm:"not null"`
	FileName       string `gorm:"not null"`
	FileType       string
	Status         string `gorm:"index;not null"`
	RecordsCreated int
	ErrorMessage   string `gorm:"type:text"`
	ProcessedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
}
