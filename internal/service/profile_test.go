package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"marketplace/internal/logger"
	"marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pic(name string) *Upload {
	return &Upload{Filename: name, Content: strings.NewReader("img")}
}

func TestProfileService_GetProfile(t *testing.T) {
	users := newMemUsers(models.User{ID: 3, Username: "carol", Email: "c@x.io", ImageFile: testAvatar})
	svc := NewProfileService(users, &fakeUploader{}, testAvatar, logger.Nop())

	u, err := svc.GetProfile(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)

	_, err = svc.GetProfile(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileService_UpdateProfile_ReplacesAvatar(t *testing.T) {
	users := newMemUsers(models.User{ID: 3, Username: "carol", Email: "c@x.io", ImageFile: testAvatar})
	up := &fakeUploader{}
	svc := NewProfileService(users, up, testAvatar, nil)

	u, err := svc.UpdateProfile(context.Background(), 3, ProfileInput{Username: "carol", Email: "c@x.io", Picture: pic("me.png")})
	require.NoError(t, err)
	first := u.ImageFile
	assert.Equal(t, []UploadMode{ModeAvatar}, up.modes)
	assert.Empty(t, up.removed, "default avatar is never removed")
	assert.Equal(t, first, users.get(3).ImageFile)

	u, err = svc.UpdateProfile(context.Background(), 3, ProfileInput{Username: "carol2", Email: "c2@x.io", Picture: pic("me2.jpg")})
	require.NoError(t, err)
	assert.NotEqual(t, first, u.ImageFile)
	assert.Equal(t, []string{first}, up.removed, "previous avatar removed after save")
	assert.Equal(t, "carol2", users.get(3).Username)
}

func TestProfileService_UpdateProfile_KeepsAvatarWithoutPicture(t *testing.T) {
	users := newMemUsers(models.User{ID: 3, Username: "carol", Email: "c@x.io", ImageFile: "abc.png"})
	up := &fakeUploader{}
	svc := NewProfileService(users, up, testAvatar, nil)

	u, err := svc.UpdateProfile(context.Background(), 3, ProfileInput{Username: "carol", Email: "new@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "abc.png", u.ImageFile)
	assert.Empty(t, up.stored)
	assert.Empty(t, up.removed)
}

func TestProfileService_UpdateProfile_Validation(t *testing.T) {
	users := newMemUsers(
		models.User{ID: 1, Username: "carol", Email: "c@x.io"},
		models.User{ID: 2, Username: "dave", Email: "d@x.io"},
	)
	up := &fakeUploader{}
	svc := NewProfileService(users, up, testAvatar, nil)

	cases := []struct {
		name  string
		in    ProfileInput
		field string
	}{
		{"username of another user", ProfileInput{Username: "dave", Email: "c@x.io"}, "username"},
		{"email of another user", ProfileInput{Username: "carol", Email: "d@x.io"}, "email"},
		{"bad extension", ProfileInput{Username: "carol", Email: "c@x.io", Picture: pic("x.gif")}, "picture"},
		{"empty username", ProfileInput{Username: "", Email: "c@x.io"}, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), 1, tc.in)
			assert.Contains(t, fieldMessages(t, err), tc.field)
		})
	}
	assert.Empty(t, up.stored, "nothing is stored when the form is invalid")
}

func TestProfileService_UpdateProfile_StoreFailureLeavesRecord(t *testing.T) {
	users := newMemUsers(models.User{ID: 3, Username: "carol", Email: "c@x.io", ImageFile: "old.png"})
	up := &fakeUploader{storeErr: &ImageDecodeError{Filename: "me.png", Err: errors.New("bad")}}
	svc := NewProfileService(users, up, testAvatar, nil)

	_, err := svc.UpdateProfile(context.Background(), 3, ProfileInput{Username: "renamed", Email: "c@x.io", Picture: pic("me.png")})
	assert.ErrorIs(t, err, ErrImageDecode)

	stored := users.get(3)
	assert.Equal(t, "old.png", stored.ImageFile)
	assert.Equal(t, "carol", stored.Username)
	assert.Empty(t, up.removed)
}

func TestProfileService_UpdateProfile_DBFailureRemovesNewFile(t *testing.T) {
	users := newMemUsers(models.User{ID: 3, Username: "carol", Email: "c@x.io", ImageFile: "old.png"})
	users.updateErr = errors.New("disk I/O error")
	up := &fakeUploader{}
	svc := NewProfileService(users, up, testAvatar, nil)

	_, err := svc.UpdateProfile(context.Background(), 3, ProfileInput{Username: "carol", Email: "c@x.io", Picture: pic("me.png")})
	require.Error(t, err)

	require.Len(t, up.stored, 1)
	assert.Equal(t, up.stored, up.removed, "only the new file is cleaned up")
	assert.Equal(t, "old.png", users.get(3).ImageFile)
}
