package article

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Content{Title: "Hello", Status: StatusDraft, URLName: "hello-world"}))

	err := Validate(Content{Title: strings.Repeat("x", 300), Status: "archived", URLName: "Not A Slug"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "title")
	require.Contains(t, ve.Fields, "status")
	require.Contains(t, ve.Fields, "urlname")

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, CodeInvalid, code)
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(&LockConflictError{HeldBy: "u1", HeldByName: "Ann"})
	require.True(t, ok)
	require.Equal(t, CodeLocked, code)

	code, ok = CodeOf(ErrStaleWrite)
	require.True(t, ok)
	require.Equal(t, CodeStaleWrite, code)

	_, ok = CodeOf(errors.New("mongo down"))
	require.False(t, ok)
}

func TestContentPatch_ApplyKeepsOmittedFields(t *testing.T) {
	stored := Content{Title: "Keep me", Body: "old", Status: StatusPublish, CategoryID: "news"}
	body := "new body"
	draft := StatusDraft

	got := ContentPatch{Body: &body, Status: &draft}.Apply(stored)
	require.Equal(t, Content{Title: "Keep me", Body: "new body", Status: StatusDraft, CategoryID: "news"}, got)

	// an explicit empty value clears the field
	empty := ""
	got = ContentPatch{CategoryID: &empty}.Apply(stored)
	require.Empty(t, got.CategoryID)
	require.Equal(t, "Keep me", got.Title)
}
