package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	author := testutil.CreateUser(t, s.db, "Brian")
	commenter := testutil.CreateUser(t, s.db, "Rob")
	stranger := testutil.CreateUser(t, s.db, "Russ")
	post := testutil.CreatePost(t, s.db, author, "The C Programming Language", true)
	base := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	status, body := s.do(t, http.MethodPost, base, s.tokenFor(t, commenter), map[string]string{"content": "Second edition?"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Comment created successfully!", body["msg"])
	comment := body["comment"].(map[string]any)
	assert.Equal(t, "Rob", comment["user"].(map[string]any)["firstName"])
	commentPath := fmt.Sprintf("%s/%v", base, comment["id"])

	status, body = s.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["comments"], 1)
	assert.EqualValues(t, 1, body["totalPages"])

	status, body = s.do(t, http.MethodPut, commentPath, s.tokenFor(t, author), map[string]string{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, status, "post authors can not edit other people's comments")
	assert.Equal(t, "You are not allowed to update this comment", body["error"])

	status, body = s.do(t, http.MethodPut, commentPath, s.tokenFor(t, commenter), map[string]string{"content": "Third edition?"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Comment updated successfully!", body["msg"])

	status, body = s.do(t, http.MethodDelete, commentPath, s.tokenFor(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You are not allowed to delete this comment", body["error"])

	status, _ = s.do(t, http.MethodDelete, commentPath, s.tokenFor(t, author), nil)
	require.Equal(t, http.StatusNoContent, status, "post authors may delete comments under their post")

	status, body = s.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["comments"])
}

func TestCreateComment_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	u := testutil.CreateUser(t, s.db, "Bjarne")
	post := testutil.CreatePost(t, s.db, u, "C with classes", true)

	status, _ := s.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), "", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), s.tokenFor(t, u), map[string]string{"content": ""})
	require.Equal(t, http.StatusBadRequest, status)
	errs := body["errors"].([]any)
	assert.Equal(t, "content", errs[0].(map[string]any)["path"])

	status, _ = s.do(t, http.MethodPost, "/api/posts/777777/comments", s.tokenFor(t, u), map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComment_WrongPostIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	u := testutil.CreateUser(t, s.db, "James")
	first := testutil.CreatePost(t, s.db, u, "Java", true)
	second := testutil.CreatePost(t, s.db, u, "Oak", true)
	c := testutil.CreateComment(t, s.db, u, first, "Write once")

	path := fmt.Sprintf("/api/posts/%d/comments/%d", second.ID, c.ID)
	status, body := s.do(t, http.MethodPut, path, s.tokenFor(t, u), map[string]string{"content": "run anywhere"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "Comment not found")

	status, _ = s.do(t, http.MethodPatch, path+"/like", s.tokenFor(t, u), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d/comments/abc", first.ID), s.tokenFor(t, u), nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestToggleCommentLike(t *testing.T) {
	s := newTestServer(t, nil)
	author := testutil.CreateUser(t, s.db, "Guido")
	fan := testutil.CreateUser(t, s.db, "Tim")
	post := testutil.CreatePost(t, s.db, author, "Python", true)
	c := testutil.CreateComment(t, s.db, author, post, "Batteries included")
	likePath := fmt.Sprintf("/api/posts/%d/comments/%d/like", post.ID, c.ID)

	status, _ := s.do(t, http.MethodPatch, likePath, s.tokenFor(t, fan), nil)
	require.Equal(t, http.StatusNoContent, status)

	_, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), s.tokenFor(t, fan), nil)
	comments := body["comments"].([]any)
	require.Len(t, comments, 1)
	first := comments[0].(map[string]any)
	assert.EqualValues(t, 1, first["likes"])
	assert.Equal(t, true, first["commentLiked"])
}
