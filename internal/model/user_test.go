package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIsPasswordCorrect(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &User{Password: string(hashed)}

	assert.True(t, user.IsPasswordCorrect("correct horse battery"))
	assert.False(t, user.IsPasswordCorrect("wrong"))
	assert.False(t, user.IsPasswordCorrect(""))
}

func TestIsPasswordCorrectWithUnhashedStored(t *testing.T) {
	// A plaintext value in the password column never verifies
	user := &User{Password: "correct horse battery"}
	assert.False(t, user.IsPasswordCorrect("correct horse battery"))
}
