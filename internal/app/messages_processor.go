package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mailsnap/pkg/domain"
	"mailsnap/pkg/store"
)

// messageDateLayout matches the snapshot export format: ISO-8601 without
// zone or fractional seconds.
const messageDateLayout = "2006-01-02T15:04:05"

type messagesDocument struct {
	Data []json.RawMessage `json:"data"`
}

type messageRecord struct {
	ID          *int64                 `json:"id"`
	Folder      *int64                 `json:"folder"`
	Subject     *string                `json:"subject"`
	Preview     string                 `json:"preview"`
	Body        string                 `json:"body"`
	Draft       *bool                  `json:"draft"`
	Read        *bool                  `json:"read"`
	Replied     *bool                  `json:"replied"`
	CanReply    *bool                  `json:"canReply"`
	Author      *participantDescriptor `json:"author"`
	Date        *messageDate           `json:"date"`
	Recipients  []recipientEntry       `json:"recipients"`
	Attachments []attachmentEntry      `json:"attachments"`
}

type attachmentEntry struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type messageDate struct {
	DateTime string `json:"dateTime"`
}

type recipientEntry struct {
	User *participantDescriptor `json:"user"`
}

// messagesProcessor ingests messages documents. A bad document shape fails
// the whole file; a bad individual record is skipped and reported without
// failing the file.
type messagesProcessor struct {
	store    store.Store
	resolver *entityResolver
}

func newMessagesProcessor(s store.Store, resolver *entityResolver) *messagesProcessor {
	return &messagesProcessor{store: s, resolver: resolver}
}

func (p *messagesProcessor) Matches(fileName string) bool {
	return strings.Contains(fileName, "messages") && strings.HasSuffix(fileName, ".json")
}

func (p *messagesProcessor) FileType() string {
	return "MESSAGES"
}

// Process applies every record in the document's "data" array. Records are
// independent: a failure on one is recorded and iteration continues.
// Returns the count of messages newly created; duplicates and failed
// records are excluded.
func (p *messagesProcessor) Process(fileName string, raw []byte, sess *sessionTracker) (int, error) {
	var doc messagesDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, formatErrorf("invalid messages document %s: expected 'data' array", fileName)
	}
	if doc.Data == nil {
		return 0, formatErrorf("invalid messages document %s: expected 'data' array", fileName)
	}

	created := 0
	for i, rawRecord := range doc.Data {
		ok, err := p.applyRecord(rawRecord)
		if err != nil {
			msg := fmt.Sprintf("record %d in %s: %v", i, fileName, err)
			slog.Error("message record skipped", "file", fileName, "record", i, "err", err)
			sess.AppendError(msg)
			continue
		}
		if ok {
			created++
		}
	}
	slog.Info("processed messages file", "file", fileName, "created", created)
	return created, nil
}

// applyRecord persists one message. Returns (false, nil) for the silent
// duplicate skip: an already-known message id counts neither as a success
// nor as a failure.
func (p *messagesProcessor) applyRecord(raw json.RawMessage) (bool, error) {
	var rec messageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, &RecordError{Reason: "malformed message record", Err: err}
	}
	if rec.ID == nil {
		return false, recordErrorf("message record missing id")
	}

	exists, err := p.store.HasMessage(*rec.ID)
	if err != nil {
		return false, fmt.Errorf("check message %d: %w", *rec.ID, err)
	}
	if exists {
		return false, nil
	}

	if rec.Subject == nil {
		return false, recordErrorf("message %d missing subject", *rec.ID)
	}
	if rec.Folder == nil {
		return false, recordErrorf("message %d missing folder", *rec.ID)
	}
	if rec.Author == nil {
		return false, recordErrorf("message %d missing author", *rec.ID)
	}
	if rec.Date == nil || rec.Date.DateTime == "" {
		return false, recordErrorf("message %d missing date", *rec.ID)
	}

	sentAt, err := time.Parse(messageDateLayout, rec.Date.DateTime)
	if err != nil {
		return false, &RecordError{
			Reason: fmt.Sprintf("message %d has malformed date %q", *rec.ID, rec.Date.DateTime),
			Err:    err,
		}
	}

	author, err := p.resolver.GetOrCreateParticipant(*rec.Author)
	if err != nil {
		return false, err
	}
	folder, err := p.resolver.GetOrCreateFolder(*rec.Folder)
	if err != nil {
		return false, err
	}

	msg := domain.Message{
		MessageID:   *rec.ID,
		FolderID:    folder.FolderID,
		Subject:     *rec.Subject,
		Preview:     rec.Preview,
		Body:        rec.Body,
		Draft:       boolOr(rec.Draft, false),
		Read:        boolOr(rec.Read, false),
		Replied:     boolOr(rec.Replied, false),
		CanReply:    boolOr(rec.CanReply, true),
		Author:      author,
		MessageDate: sentAt,
		CreatedAt:   time.Now().UTC(),
	}

	for _, att := range rec.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			FileName:    att.Name,
			FileSize:    att.Size,
			ContentType: att.ContentType,
		})
	}

	// Recipient set semantics: resolve each reference and add at most once.
	seen := make(map[int64]struct{}, len(rec.Recipients))
	for _, entry := range rec.Recipients {
		if entry.User == nil {
			return false, recordErrorf("message %d has recipient without user", *rec.ID)
		}
		recipient, err := p.resolver.GetOrCreateParticipant(*entry.User)
		if err != nil {
			return false, err
		}
		if _, dup := seen[recipient.UserID]; dup {
			continue
		}
		seen[recipient.UserID] = struct{}{}
		msg.Recipients = append(msg.Recipients, recipient)
	}

	if err := p.store.CreateMessage(msg); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// A concurrent batch created it between the existence check
			// and the insert. Same outcome as the silent skip.
			return false, nil
		}
		return false, fmt.Errorf("persist message %d: %w", *rec.ID, err)
	}
	return true, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
