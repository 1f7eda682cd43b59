package app

import (
	"time"

	"mailsnap/pkg/domain"
)

// Display formats served to the client alongside the raw timestamp.
const (
	displayDateLayout     = "1/2/2006"
	displayTimeLayout     = "3:04 PM"
	weekdayMonthNoYearFmt = "Mon, Jan 2, 3:04 PM"
)

func toUserDTO(p domain.Participant) domain.UserDTO {
	return domain.UserDTO{
		UserID:          p.UserID,
		Name:            p.Username,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		DisplayInitials: p.DisplayInitials,
		Active:          p.Active,
		Type:            p.UserType,
		Color:           p.AvatarColor,
	}
}

func toDateDTO(t time.Time) domain.MessageDateDTO {
	return domain.MessageDateDTO{
		DisplayDate:                     t.Format(displayDateLayout),
		DisplayTime:                     t.Format(displayTimeLayout),
		DateTime:                        t.Format(messageDateLayout),
		ThreeCharMonthWeekdayTimeNoYear: t.Format(weekdayMonthNoYearFmt),
	}
}

func toRecipientDTOs(ps []domain.Participant) []domain.RecipientDTO {
	out := make([]domain.RecipientDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, domain.RecipientDTO{User: toUserDTO(p)})
	}
	return out
}

func toListItemDTO(m domain.Message) domain.MessageListItemDTO {
	return domain.MessageListItemDTO{
		ID:         m.MessageID,
		Folder:     m.FolderID,
		Subject:    m.Subject,
		Preview:    m.Preview,
		Files:      len(m.Attachments),
		Read:       m.Read,
		Replied:    m.Replied,
		Draft:      m.Draft,
		CanReply:   m.CanReply,
		Author:     toUserDTO(m.Author),
		Date:       toDateDTO(m.MessageDate),
		Recipients: toRecipientDTOs(m.Recipients),
	}
}

func toDetailDTO(m domain.Message) domain.MessageDetailDTO {
	attachments := make([]domain.AttachmentDTO, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, domain.AttachmentDTO{
			Name:        a.FileName,
			Size:        a.FileSize,
			ContentType: a.ContentType,
		})
	}
	return domain.MessageDetailDTO{
		ID:          m.MessageID,
		Folder:      m.FolderID,
		Subject:     m.Subject,
		Body:        m.Body,
		Preview:     m.Preview,
		Files:       len(m.Attachments),
		Read:        m.Read,
		Replied:     m.Replied,
		Draft:       m.Draft,
		CanReply:    m.CanReply,
		Author:      toUserDTO(m.Author),
		Date:        toDateDTO(m.MessageDate),
		Recipients:  toRecipientDTOs(m.Recipients),
		Attachments: attachments,
	}
}

func toFolderDTO(f domain.Folder, unread, total int64) domain.FolderDTO {
	return domain.FolderDTO{
		ID:                 f.FolderID,
		Name:               f.Name,
		FolderType:         f.FolderType,
		FolderOrder:        f.FolderOrder,
		UnreadMessageCount: unread,
		TotalMessageCount:  total,
	}
}
