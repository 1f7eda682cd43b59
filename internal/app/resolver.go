package app

import (
	"errors"
	"fmt"
	"time"

	"mailsnap/pkg/domain"
	"mailsnap/pkg/store"
)

const defaultAvatarColor = "#000000"

// participantDescriptor is the participant shape embedded in snapshot
// documents, used for both authors and recipients.
type participantDescriptor struct {
	UserID          *int64 `json:"userId"`
	Name            string `json:"name"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	DisplayInitials string `json:"displayInitials"`
	Color           string `json:"color"`
	Active          *bool  `json:"active"`
	Type            string `json:"type"`
}

// entityResolver provides idempotent get-or-create for participants and
// folders. Existing rows are returned untouched: the first import of a
// natural key wins and later descriptors for the same key never update it.
type entityResolver struct {
	store store.Store
}

func newEntityResolver(s store.Store) *entityResolver {
	return &entityResolver{store: s}
}

// GetOrCreateParticipant resolves a descriptor to a persisted participant.
// A concurrent insert of the same key is not an error: the resolver reloads
// the row the winner created.
func (r *entityResolver) GetOrCreateParticipant(d participantDescriptor) (domain.Participant, error) {
	if d.UserID == nil {
		return domain.Participant{}, recordErrorf("participant descriptor missing userId")
	}
	existing, found, err := r.store.GetParticipant(*d.UserID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("lookup participant %d: %w", *d.UserID, err)
	}
	if found {
		return existing, nil
	}

	p := domain.Participant{
		UserID:          *d.UserID,
		Username:        d.Name,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		DisplayInitials: d.DisplayInitials,
		AvatarColor:     d.Color,
		Active:          true,
		UserType:        d.Type,
		Locale:          "en-US",
		CreatedAt:       time.Now().UTC(),
	}
	if p.AvatarColor == "" {
		p.AvatarColor = defaultAvatarColor
	}
	if d.Active != nil {
		p.Active = *d.Active
	}
	if err := r.store.CreateParticipant(p); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return r.reloadParticipant(*d.UserID)
		}
		return domain.Participant{}, fmt.Errorf("create participant %d: %w", *d.UserID, err)
	}
	return p, nil
}

func (r *entityResolver) reloadParticipant(userID int64) (domain.Participant, error) {
	p, found, err := r.store.GetParticipant(userID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("reload participant %d: %w", userID, err)
	}
	if !found {
		return domain.Participant{}, fmt.Errorf("participant %d vanished after duplicate insert", userID)
	}
	return p, nil
}

// GetOrCreateFolder resolves a folder reference from a message, creating a
// default user folder when the snapshot references a folder that was never
// described by a folders document.
func (r *entityResolver) GetOrCreateFolder(folderID int64) (domain.Folder, error) {
	existing, found, err := r.store.GetFolder(folderID)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("lookup folder %d: %w", folderID, err)
	}
	if found {
		return existing, nil
	}

	f := domain.Folder{
		FolderID:     folderID,
		Name:         fmt.Sprintf("Folder %d", folderID),
		FolderType:   "USER",
		FolderOrder:  0,
		SystemFolder: false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.store.CreateFolder(f); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			reloaded, found, err := r.store.GetFolder(folderID)
			if err != nil {
				return domain.Folder{}, fmt.Errorf("reload folder %d: %w", folderID, err)
			}
			if !found {
				return domain.Folder{}, fmt.Errorf("folder %d vanished after duplicate insert", folderID)
			}
			return reloaded, nil
		}
		return domain.Folder{}, fmt.Errorf("create folder %d: %w", folderID, err)
	}
	return f, nil
}
