package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *fakeRepoManager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	posts := NewPostService(db, rm, &fakeMedia{}, discardLogger())
	return NewUserService(db, rm, posts, discardLogger()), rm
}

func TestUserService_GetAllAndGetByID(t *testing.T) {
	s, rm := newUserService(t)
	a := rm.verifiedUser("a@x.io", "alpha", "Secret1!")
	rm.verifiedUser("b@x.io", "bravo", "Secret1!")

	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@x.io", all[0].Email)

	got, err := s.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, &UserDTO{ID: a.ID, Email: "a@x.io"}, got)

	_, err = s.GetByID(context.Background(), "")
	requireFailure(t, err, common.ErrorBadRequest, common.MsgIDRequiredLower)

	_, err = s.GetByID(context.Background(), "abc")
	requireFailure(t, err, common.ErrorNotFound, common.MsgUserNotFound)
}

func TestUserService_GetAllError(t *testing.T) {
	s, rm := newUserService(t)
	rm.users.err = errBoom{}

	_, err := s.GetAll(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestUserService_Delete(t *testing.T) {
	s, rm := newUserService(t)
	a := rm.verifiedUser("a@x.io", "alpha", "Secret1!")

	res, err := s.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, ok(common.MsgUserDeleted), res)
	assert.Nil(t, rm.users.get(a.ID))

	_, err = s.Delete(context.Background(), a.ID)
	requireFailure(t, err, common.ErrorNotFound, common.MsgUserNotFound)
}

func TestUserService_GetUserPosts(t *testing.T) {
	s, rm := newUserService(t)
	a := rm.verifiedUser("a@x.io", "alpha", "Secret1!")
	seedPost(rm, models.Post{UserID: a.ID, Type: models.PostTypeBlog, Title: "mine"})
	seedPost(rm, models.Post{UserID: a.ID, Type: models.PostTypeBlog, Title: "draft"})
	seedPost(rm, models.Post{UserID: "other", Type: models.PostTypeBlog, Title: "theirs"})

	posts, err := s.GetUserPosts(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	_, err = s.GetUserPosts(context.Background(), "00000000-0000-0000-0000-000000000000")
	requireFailure(t, err, common.ErrorNotFound, common.MsgUserNotFound)
}
