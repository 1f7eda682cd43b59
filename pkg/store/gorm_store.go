package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"mailsnap/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&ParticipantModel{},
		&FolderModel{},
		&MessageModel{},
		&RecipientModel{},
		&AttachmentModel{},
		&SessionModel{},
		&SessionFileModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// GetParticipant looks up a participant by natural key.
func (s *GormStore) GetParticipant(userID int64) (domain.Participant, bool, error) {
	var m ParticipantModel
	err := s.db.Where("user_id = ?", userID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Participant{}, false, nil
	}
	if err != nil {
		return domain.Participant{}, false, fmt.Errorf("get participant: %w", err)
	}
	return participantFromModel(m), true, nil
}

// CreateParticipant inserts a new participant. A conflicting natural key
// returns ErrDuplicateKey so callers can reload the winner.
func (s *GormStore) CreateParticipant(p domain.Participant) error {
	m := participantToModel(p)
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return fmt.Errorf("create participant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateKey
	}
	return nil
}

// GetFolder looks up a folder by natural key.
func (s *GormStore) GetFolder(folderID int64) (domain.Folder, bool, error) {
	var m FolderModel
	err := s.db.Where("folder_id = ?", folderID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Folder{}, false, nil
	}
	if err != nil {
		return domain.Folder{}, false, fmt.Errorf("get folder: %w", err)
	}
	return folderFromModel(m), true, nil
}

// CreateFolder inserts a new folder, returning ErrDuplicateKey on conflict.
func (s *GormStore) CreateFolder(f domain.Folder) error {
	m := folderToModel(f)
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "folder_id"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return fmt.Errorf("create folder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateKey
	}
	return nil
}

// ListFolders returns all folders ordered by folder_order then natural key.
func (s *GormStore) ListFolders() ([]domain.Folder, error) {
	var models []FolderModel
	if err := s.db.Order("folder_order, folder_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	folders := make([]domain.Folder, 0, len(models))
	for _, m := range models {
		folders = append(folders, folderFromModel(m))
	}
	return folders, nil
}

// HasMessage reports whether a message with the natural key exists.
func (s *GormStore) HasMessage(messageID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&MessageModel{}).Where("message_id = ?", messageID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("has message: %w", err)
	}
	return count > 0, nil
}

// CreateMessage persists a message with its recipient set and attachment
// metadata in one transaction. Each call commits independently so earlier
// records in a batch survive later failures.
func (s *GormStore) CreateMessage(msg domain.Message) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		m := messageToModel(msg)
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).Create(&m)
		if res.Error != nil {
			return fmt.Errorf("create message: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateKey
		}
		for _, r := range msg.Recipients {
			rec := RecipientModel{MessageID: msg.MessageID, UserID: r.UserID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
				return fmt.Errorf("create recipient: %w", err)
			}
		}
		for _, a := range msg.Attachments {
			att := AttachmentModel{
				MessageID:   msg.MessageID,
				FileName:    a.FileName,
				FileSize:    a.FileSize,
				ContentType: a.ContentType,
			}
			if err := tx.Create(&att).Error; err != nil {
				return fmt.Errorf("create attachment: %w", err)
			}
		}
		return nil
	})
}

// GetMessage loads a message with author, recipients, and attachments.
func (s *GormStore) GetMessage(messageID int64) (domain.Message, bool, error) {
	var m MessageModel
	err := s.db.Where("message_id = ?", messageID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Message{}, false, nil
	}
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("get message: %w", err)
	}
	msgs, err := s.hydrateMessages([]MessageModel{m})
	if err != nil {
		return domain.Message{}, false, err
	}
	return msgs[0], true, nil
}

var messageSortColumns = map[string]string{
	"messageDate": "message_date",
	"subject":     "subject",
	"createdAt":   "created_at",
}

// ListMessages returns one page of messages plus the total count.
func (s *GormStore) ListMessages(q MessageQuery) ([]domain.Message, int64, error) {
	column, ok := messageSortColumns[q.SortField]
	if !ok {
		column = "message_date"
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}
	base := s.db.Model(&MessageModel{})
	if q.FolderID != nil {
		base = base.Where("folder_id = ?", *q.FolderID)
	}
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	var models []MessageModel
	err := base.
		Order(fmt.Sprintf("%s %s", column, direction)).
		Offset(q.Page * q.Size).
		Limit(q.Size).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	msgs, err := s.hydrateMessages(models)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// SetMessageRead flips the read flag on a message.
func (s *GormStore) SetMessageRead(messageID int64, read bool) error {
	res := s.db.Model(&MessageModel{}).Where("message_id = ?", messageID).Update("is_read", read)
	if res.Error != nil {
		return fmt.Errorf("set message read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message and its recipient and attachment rows.
func (s *GormStore) DeleteMessage(messageID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("message_id = ?", messageID).Delete(&MessageModel{})
		if res.Error != nil {
			return fmt.Errorf("delete message: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&RecipientModel{}).Error; err != nil {
			return fmt.Errorf("delete recipients: %w", err)
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&AttachmentModel{}).Error; err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		return nil
	})
}

// CountMessages returns the total message count for a folder.
func (s *GormStore) CountMessages(folderID int64) (int64, error) {
	var count int64
	err := s.db.Model(&MessageModel{}).Where("folder_id = ?", folderID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// CountUnread returns the unread message count for a folder.
func (s *GormStore) CountUnread(folderID int64) (int64, error) {
	var count int64
	err := s.db.Model(&MessageModel{}).
		Where("folder_id = ? AND is_read = ?", folderID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// SaveSession upserts the session row and replaces its file records.
func (s *GormStore) SaveSession(session domain.UploadSession) error {
	m, err := sessionToModel(session)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "total_files", "processed_files", "error_count",
				"notes", "error_messages", "completed_at",
			}),
		}).Create(&m).Error; err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := tx.Where("session_token = ?", session.Token).Delete(&SessionFileModel{}).Error; err != nil {
			return fmt.Errorf("clear session files: %w", err)
		}
		for i, f := range session.Files {
			fm := SessionFileModel{
				SessionToken:   session.Token,
				Position:       i,
				FileName:       f.FileName,
				FileType:       f.FileType,
				Status:         string(f.Status),
				RecordsCreated: f.RecordsCreated,
				ErrorMessage:   f.ErrorMessage,
				ProcessedAt:    f.ProcessedAt,
			}
			if err := tx.Create(&fm).Error; err != nil {
				return fmt.Errorf("save session file: %w", err)
			}
		}
		return nil
	})
}

// GetSession loads a session audit record with its ordered file list.
func (s *GormStore) GetSession(token string) (domain.UploadSession, bool, error) {
	var m SessionModel
	err := s.db.Where("token = ?", token).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return domain.UploadSession{}, false, nil
	}
	if err != nil {
		return domain.UploadSession{}, false, fmt.Errorf("get session: %w", err)
	}
	var files []SessionFileModel
	if err := s.db.Where("session_token = ?", token).Order("position").Find(&files).Error; err != nil {
		return domain.UploadSession{}, false, fmt.Errorf("get session files: %w", err)
	}
	session, err := sessionFromModel(m, files)
	if err != nil {
		return domain.UploadSession{}, false, err
	}
	return session, true, nil
}

// hydrateMessages attaches authors, recipients, and attachment metadata to
// message rows with batched lookups.
func (s *GormStore) hydrateMessages(models []MessageModel) ([]domain.Message, error) {
	if len(models) == 0 {
		return []domain.Message{}, nil
	}
	messageIDs := make([]int64, 0, len(models))
	participantIDs := make(map[int64]struct{})
	for _, m := range models {
		messageIDs = append(messageIDs, m.MessageID)
		participantIDs[m.AuthorUserID] = struct{}{}
	}

	var recipientRows []RecipientModel
	if err := s.db.Where("message_id IN ?", messageIDs).Order("id").Find(&recipientRows).Error; err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	for _, r := range recipientRows {
		participantIDs[r.UserID] = struct{}{}
	}

	ids := make([]int64, 0, len(participantIDs))
	for id := range participantIDs {
		ids = append(ids, id)
	}
	var participantRows []ParticipantModel
	if err := s.db.Where("user_id IN ?", ids).Find(&participantRows).Error; err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	participants := make(map[int64]domain.Participant, len(participantRows))
	for _, p := range participantRows {
		participants[p.UserID] = participantFromModel(p)
	}

	var attachmentRows []AttachmentModel
	if err := s.db.Where("message_id IN ?", messageIDs).Order("id").Find(&attachmentRows).Error; err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}
	attachments := make(map[int64][]domain.Attachment)
	for _, a := range attachmentRows {
		attachments[a.MessageID] = append(attachments[a.MessageID], domain.Attachment{
			FileName:    a.FileName,
			FileSize:    a.FileSize,
			ContentType: a.ContentType,
		})
	}
	recipients := make(map[int64][]domain.Participant)
	for _, r := range recipientRows {
		if p, ok := participants[r.UserID]; ok {
			recipients[r.MessageID] = append(recipients[r.MessageID], p)
		}
	}

	msgs := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msg := messageFromModel(m)
		msg.Author = participants[m.AuthorUserID]
		msg.Recipients = recipients[m.MessageID]
		msg.Attachments = attachments[m.MessageID]
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func participantToModel(p domain.Participant) ParticipantModel {
	return ParticipantModel{
		UserID:          p.UserID,
		Username:        p.Username,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		DisplayInitials: p.DisplayInitials,
		AvatarColor:     p.AvatarColor,
		Active:          p.Active,
		UserType:        p.UserType,
		Locale:          p.Locale,
		TimeZone:        p.TimeZone,
		CreatedAt:       p.CreatedAt,
	}
}

func participantFromModel(m ParticipantModel) domain.Participant {
	return domain.Participant{
		UserID:          m.UserID,
		Username:        m.Username,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		DisplayInitials: m.DisplayInitials,
		AvatarColor:     m.AvatarColor,
		Active:          m.Active,
		UserType:        m.UserType,
		Locale:          m.Locale,
		TimeZone:        m.TimeZone,
		CreatedAt:       m.CreatedAt,
	}
}

func folderToModel(f domain.Folder) FolderModel {
	return FolderModel{
		FolderID:     f.FolderID,
		Name:         f.Name,
		FolderType:   f.FolderType,
		FolderOrder:  f.FolderOrder,
		SystemFolder: f.SystemFolder,
		OwnerUserID:  f.OwnerUserID,
		CreatedAt:    f.CreatedAt,
	}
}

func folderFromModel(m FolderModel) domain.Folder {
	return domain.Folder{
		FolderID:     m.FolderID,
		Name:         m.Name,
		FolderType:   m.FolderType,
		FolderOrder:  m.FolderOrder,
		SystemFolder: m.SystemFolder,
		OwnerUserID:  m.OwnerUserID,
		CreatedAt:    m.CreatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		MessageID:    msg.MessageID,
		FolderID:     msg.FolderID,
		AuthorUserID: msg.Author.UserID,
		Subject:      msg.Subject,
		Preview:      msg.Preview,
		Body:         msg.Body,
		IsDraft:      msg.Draft,
		IsRead:       msg.Read,
		IsReplied:    msg.Replied,
		CanReply:     msg.CanReply,
		MessageDate:  msg.MessageDate,
		CreatedAt:    msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		MessageID:   m.MessageID,
		FolderID:    m.FolderID,
		Subject:     m.Subject,
		Preview:     m.Preview,
		Body:        m.Body,
		Draft:       m.IsDraft,
		Read:        m.IsRead,
		Replied:     m.IsReplied,
		CanReply:    m.CanReply,
		MessageDate: m.MessageDate,
		CreatedAt:   m.CreatedAt,
	}
}

func sessionToModel(session domain.UploadSession) (SessionModel, error) {
	var errs []byte
	if len(session.ErrorMessages) > 0 {
		var err error
		errs, err = json.Marshal(session.ErrorMessages)
		if err != nil {
			return SessionModel{}, fmt.Errorf("marshal session errors: %w", err)
		}
	}
	return SessionModel{
		Token:          session.Token,
		UploadedBy:     session.UploadedBy,
		Status:         string(session.Status),
		TotalFiles:     session.TotalFiles,
		ProcessedFiles: session.ProcessedFiles,
		ErrorCount:     session.ErrorCount,
		Notes:          session.Notes,
		ErrorMessages:  errs,
		CreatedAt:      session.CreatedAt,
		CompletedAt:    session.CompletedAt,
	}, nil
}

func sessionFromModel(m SessionModel, files []SessionFileModel) (domain.UploadSession, error) {
	var errs []string
	if len(m.ErrorMessages) > 0 {
		if err := json.Unmarshal(m.ErrorMessages, &errs); err != nil {
			return domain.UploadSession{}, fmt.Errorf("unmarshal session errors: %w", err)
		}
	}
	session := domain.UploadSession{
		Token:          m.Token,
		UploadedBy:     m.UploadedBy,
		Status:         domain.SessionStatus(m.Status),
		TotalFiles:     m.TotalFiles,
		ProcessedFiles: m.ProcessedFiles,
		ErrorCount:     m.ErrorCount,
		Notes:          m.Notes,
		ErrorMessages:  errs,
		CreatedAt:      m.CreatedAt,
		CompletedAt:    m.CompletedAt,
	}
	for _, f := range files {
		session.Files = append(session.Files, &domain.UploadFile{
			FileName:       f.FileName,
			FileType:       f.FileType,
			Status:         domain.FileStatus(f.Status),
			RecordsCreated: f.RecordsCreated,
			ErrorMessage:   f.ErrorMessage,
			ProcessedAt:    f.ProcessedAt,
		})
	}
	return session, nil
}
