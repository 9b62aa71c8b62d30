package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sebrinamusbah/bookstore-client/pkg/session"
)

func TestSession_RoleChecks(t *testing.T) {
	t.Parallel()

	admin := &session.Session{Role: session.RoleAdmin}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.HasRole(session.RoleAdmin))
	assert.False(t, admin.HasRole(session.RoleUser))

	user := &session.Session{Role: session.RoleUser}
	assert.False(t, user.IsAdmin())
}

func TestSession_NilReceiverIsRoleless(t *testing.T) {
	t.Parallel()

	var sess *session.Session
	assert.False(t, sess.IsAdmin())
	assert.False(t, sess.HasRole(session.RoleUser))
}
