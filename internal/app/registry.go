package app

import "strings"

// fileProcessor parses one document format and applies its records to the
// store. Adding a new ingestible format means registering one more
// implementation; dispatch and session bookkeeping stay untouched.
type fileProcessor interface {
	// Matches reports whether this processor handles the given file name.
	Matches(fileName string) bool
	// FileType tags file records for the session audit trail.
	FileType() string
	// Process applies the document and returns the number of records
	// newly created. A returned error fails the whole file.
	Process(fileName string, raw []byte, sess *sessionTracker) (int, error)
}

// processorRegistry dispatches files to the first matching processor.
// Registration order is priority order.
type processorRegistry struct {
	processors []fileProcessor
}

func newProcessorRegistry(processors ...fileProcessor) *processorRegistry {
	return &processorRegistry{processors: processors}
}

// Find returns the first processor whose predicate matches, or nil.
func (r *processorRegistry) Find(fileName string) fileProcessor {
	for _, p := range r.processors {
		if p.Matches(fileName) {
			return p
		}
	}
	return nil
}

// fileTypeTag classifies a file name for the audit trail. Tags exist for
// formats the client exports even when no processor ingests them yet.
func fileTypeTag(fileName string) string {
	switch {
	case strings.Contains(fileName, "messages"):
		return "MESSAGES"
	case strings.Contains(fileName, "folders"):
		return "FOLDERS"
	case strings.Contains(fileName, "cookies"):
		return "COOKIES"
	case strings.Contains(fileName, "localstorage"):
		return "LOCALSTORAGE"
	default:
		return "UNKNOWN"
	}
}
