package app

import (
	"errors"
	"fmt"

	"mailsnap/internal/pagination"
	"mailsnap/pkg/domain"
	"mailsnap/pkg/store"
)

// Messages returns one page of the message listing, optionally filtered to
// a folder.
func (a *App) Messages(p pagination.Params, folderID *int64) (domain.MessagesPageDTO, error) {
	msgs, total, err := a.store.ListMessages(store.MessageQuery{
		FolderID:  folderID,
		Page:      p.Page,
		Size:      p.Size,
		SortField: p.SortField,
		Desc:      p.Desc,
	})
	if err != nil {
		return domain.MessagesPageDTO{}, fmt.Errorf("list messages: %w", err)
	}

	items := make([]domain.MessageListItemDTO, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, toListItemDTO(m))
	}
	totalPages := 0
	if p.Size > 0 {
		totalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return domain.MessagesPageDTO{
		Data:          items,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// Message returns one message with body and attachment metadata.
func (a *App) Message(messageID int64) (domain.MessageDetailDTO, error) {
	m, found, err := a.store.GetMessage(messageID)
	if err != nil {
		return domain.MessageDetailDTO{}, fmt.Errorf("get message %d: %w", messageID, err)
	}
	if !found {
		return domain.MessageDetailDTO{}, store.ErrNotFound
	}
	return toDetailDTO(m), nil
}

// SetMessageRead flips the read flag and invalidates the containing
// folder's cached counts.
func (a *App) SetMessageRead(messageID int64, read bool) error {
	m, found, err := a.store.GetMessage(messageID)
	if err != nil {
		return fmt.Errorf("get message %d: %w", messageID, err)
	}
	if !found {
		return store.ErrNotFound
	}
	if err := a.store.SetMessageRead(messageID, read); err != nil {
		return fmt.Errorf("set message %d read=%v: %w", messageID, read, err)
	}
	a.counts.InvalidateFolders(m.FolderID)
	return nil
}

// DeleteMessage removes a message and its recipients and attachments.
func (a *App) DeleteMessage(messageID int64) error {
	m, found, err := a.store.GetMessage(messageID)
	if err != nil {
		return fmt.Errorf("get message %d: %w", messageID, err)
	}
	if !found {
		return store.ErrNotFound
	}
	if err := a.store.DeleteMessage(messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	a.counts.InvalidateFolders(m.FolderID)
	return nil
}

// Folders returns the folder hierarchy split into system and user folders.
// Counts are served from the cache when one is configured; includeCounts
// false skips counting entirely and leaves the count fields zero.
func (a *App) Folders(includeCounts bool) (domain.FoldersResponseDTO, error) {
	folders, err := a.store.ListFolders()
	if err != nil {
		return domain.FoldersResponseDTO{}, fmt.Errorf("list folders: %w", err)
	}

	resp := domain.FoldersResponseDTO{
		SystemFolders: []domain.FolderDTO{},
		UserFolders:   []domain.FolderDTO{},
	}
	for _, f := range folders {
		var unread, total int64
		if includeCounts {
			unread, total, err = a.folderCounts(f.FolderID)
			if err != nil {
				return domain.FoldersResponseDTO{}, fmt.Errorf("counts for folder %d: %w", f.FolderID, err)
			}
		}
		dto := toFolderDTO(f, unread, total)
		if f.SystemFolder {
			resp.SystemFolders = append(resp.SystemFolders, dto)
		} else {
			resp.UserFolders = append(resp.UserFolders, dto)
		}
	}
	return resp, nil
}

func (a *App) folderCounts(folderID int64) (int64, int64, error) {
	if a.counts != nil {
		return a.counts.FolderCounts(folderID)
	}
	unread, err := a.store.CountUnread(folderID)
	if err != nil {
		return 0, 0, err
	}
	total, err := a.store.CountMessages(folderID)
	if err != nil {
		return 0, 0, err
	}
	return unread, total, nil
}
