package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	assert.NotEmpty(t, Required("   "))
	assert.Empty(t, Required("x"))

	assert.Empty(t, MaxLen("abc", 3))
	assert.NotEmpty(t, MaxLen("abcd", 3))

	assert.NotEmpty(t, Length("short", 8, 30))
	assert.Empty(t, Length("longenough", 8, 30))

	assert.Empty(t, Email("alice@example.com"))
	assert.NotEmpty(t, Email("not-an-email"))
	assert.NotEmpty(t, Email(""))

	assert.Empty(t, EqualTo("a", "a", "password"))
	assert.Equal(t, "Field must be equal to password.", EqualTo("a", "b", "password"))
}

func TestFileAllowed(t *testing.T) {
	allowed := []string{"jpg", "png"}
	cases := map[string]bool{
		"":            true,
		"photo.jpg":   true,
		"PHOTO.PNG":   true,
		"photo.gif":   false,
		"noextension": false,
		"a.jpg.exe":   false,
	}
	for name, ok := range cases {
		got := FileAllowed(name, allowed) == ""
		assert.Equal(t, ok, got, name)
	}
}

func TestErrors_CheckStopsAtFirstFailure(t *testing.T) {
	var errs Errors
	errs.Check("username", Required(""), MaxLen("", 20))
	errs.Check("email", Required("a@b.co"), Email("a@b.co"))

	assert.Len(t, errs, 1)
	assert.True(t, errs.Has("username"))
	assert.False(t, errs.Has("email"))
	assert.Equal(t, map[string][]string{"username": {"This field is required."}}, errs.ByField())

	var target Errors
	assert.True(t, errors.As(errs.Err(), &target))
	assert.Nil(t, Errors(nil).Err())
}
