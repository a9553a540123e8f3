package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewer(t *testing.T) {
	var zero Viewer
	assert.True(t, zero.IsAnonymous())

	id, ok := AnonymousViewer().UserID()
	assert.False(t, ok)
	assert.Zero(t, id)

	v := IdentifiedViewer(42)
	id, ok = v.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.False(t, v.IsAnonymous())
}

func TestAppError_CodesAndWrapping(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("load post: %w", NewUnavailableError(cause))

	assert.Equal(t, CodeUnavailable, ErrorCode(wrapped))
	assert.True(t, IsCode(wrapped, CodeUnavailable))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeInternal, ErrorCode(cause))
}

func TestNewNotFoundError_Message(t *testing.T) {
	err := NewNotFoundError("Post")
	assert.Equal(t, "Post not found! it may have been moved, deleted or it might have never existed.", err.Error())
	assert.Equal(t, CodeNotFound, err.Code)
}

func TestNewFieldValidationError(t *testing.T) {
	err := NewFieldValidationError([]FieldError{{Type: "field", Msg: "Title can not be empty.", Path: "title", Location: "body"}})
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "Title can not be empty.", err.Message)
	require.Len(t, err.Fields, 1)
}

func TestUserJSON_HidesCredentials(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, FirstName: "Ada", Email: "ada@example.com", Password: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ada@example.com")
	assert.NotContains(t, string(b), "hash")
	assert.Contains(t, string(b), `"firstName":"Ada"`)
}

func TestCommentJSON_UsesCommentLiked(t *testing.T) {
	b, err := json.Marshal(Comment{ID: 1, Liked: true})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"commentLiked":true`)
}
