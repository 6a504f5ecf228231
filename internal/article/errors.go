package article

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code is the machine-readable error code returned to API callers.
type Code string

const (
	CodeLocked     Code = "article_locked"
	CodeStaleWrite Code = "save_count_expired"
	CodeInvalid    Code = "invalid_article"
	CodeNotFound   Code = "not_found"
)

var (
	// ErrStaleWrite is returned when the submitted save count does not exceed
	// the stored revision. The client has to reload before saving again.
	ErrStaleWrite = errors.New("article has been updated since it was loaded")
	ErrNotFound   = errors.New("not found")
)

// LockConflictError is returned when another collaborator holds the edit lock.
type LockConflictError struct {
	HeldBy     string
	HeldByName string
}

func (e *LockConflictError) Error() string {
	name := e.HeldByName
	if name == "" {
		name = e.HeldBy
	}
	return fmt.Sprintf("%s is editing this article", name)
}

// ValidationError lists offending content fields with a short reason per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid article: " + strings.Join(parts, "; ")
}

// CodeOf maps an edit outcome to its API code. ok is false for errors that are
// not expected outcomes (store failures).
func CodeOf(err error) (code Code, ok bool) {
	var lce *LockConflictError
	var ve *ValidationError
	switch {
	case errors.As(err, &lce):
		return CodeLocked, true
	case errors.Is(err, ErrStaleWrite):
		return CodeStaleWrite, true
	case errors.As(err, &ve):
		return CodeInvalid, true
	case errors.Is(err, ErrNotFound):
		return CodeNotFound, true
	}
	return "", false
}
