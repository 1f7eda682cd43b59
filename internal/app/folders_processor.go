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

type foldersDocument struct {
	SystemFolders []folderRecord `json:"systemFolders"`
	UserFolders   []folderRecord `json:"userFolders"`
}

type folderRecord struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"name"`
	FolderType  string  `json:"folderType"`
	FolderOrder *int    `json:"folderOrder"`
	OwnerUserID *int64  `json:"ownerUserId"`
}

// foldersProcessor ingests folder documents. Unlike message records, a bad
// folder record fails the whole file: folders are few and a half-applied
// hierarchy is worse than none.
type foldersProcessor struct {
	store store.Store
}

func newFoldersProcessor(s store.Store) *foldersProcessor {
	return &foldersProcessor{store: s}
}

func (p *foldersProcessor) Matches(fileName string) bool {
	return strings.Contains(fileName, "folders") && strings.HasSuffix(fileName, ".json")
}

func (p *foldersProcessor) FileType() string {
	return "FOLDERS"
}

// Process creates every folder named by the document. Folders that already
// exist are left untouched and excluded from the returned count. A document
// with neither array yields zero records, not an error.
func (p *foldersProcessor) Process(fileName string, raw []byte, sess *sessionTracker) (int, error) {
	var doc foldersDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, formatErrorf("invalid folders document %s", fileName)
	}

	created := 0
	for _, rec := range doc.SystemFolders {
		ok, err := p.applyRecord(rec, true)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	for _, rec := range doc.UserFolders {
		ok, err := p.applyRecord(rec, false)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	slog.Info("processed folders file", "file", fileName, "created", created)
	return created, nil
}

func (p *foldersProcessor) applyRecord(rec folderRecord, system bool) (bool, error) {
	if rec.ID == nil {
		return false, formatErrorf("folder record missing id")
	}
	if rec.Name == nil || *rec.Name == "" {
		return false, formatErrorf("folder %d missing name", *rec.ID)
	}

	_, found, err := p.store.GetFolder(*rec.ID)
	if err != nil {
		return false, fmt.Errorf("lookup folder %d: %w", *rec.ID, err)
	}
	if found {
		return false, nil
	}

	f := domain.Folder{
		FolderID:     *rec.ID,
		Name:         *rec.Name,
		FolderType:   rec.FolderType,
		SystemFolder: system,
		OwnerUserID:  rec.OwnerUserID,
		CreatedAt:    time.Now().UTC(),
	}
	if f.FolderType == "" {
		f.FolderType = "USER"
	}
	if rec.FolderOrder != nil {
		f.FolderOrder = *rec.FolderOrder
	}
	if err := p.store.CreateFolder(f); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("persist folder %d: %w", *rec.ID, err)
	}
	return true, nil
}
