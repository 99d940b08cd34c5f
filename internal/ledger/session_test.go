package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = common.HexToAddress("0xA0Cf024D03D05169b3fc3728F5EE3c8a684ca6a5")

func TestSessionLifecycle(t *testing.T) {
	sess := NewSession()
	assert.Equal(t, SessionUninitialized, sess.State())
	assert.False(t, sess.IsOpen())

	_, err := sess.Identity()
	assert.ErrorIs(t, err, ErrStoreUninitialized)

	require.NoError(t, sess.Open(testIdentity))
	assert.Equal(t, SessionOpen, sess.State())
	assert.True(t, sess.IsOpen())

	identity, err := sess.Identity()
	require.NoError(t, err)
	assert.Equal(t, testIdentity, identity)

	sess.Close()
	assert.Equal(t, SessionClosed, sess.State())
	assert.False(t, sess.IsOpen())

	_, err = sess.Identity()
	assert.ErrorIs(t, err, ErrStoreUninitialized)
}

func TestSessionRejectsZeroIdentity(t *testing.T) {
	sess := NewSession()
	assert.Error(t, sess.Open(common.Address{}))
	assert.False(t, sess.IsOpen())
}

func TestSessionReopenBindsNewIdentity(t *testing.T) {
	sess := NewSession()
	require.NoError(t, sess.Open(testIdentity))
	sess.Close()

	other := common.HexToAddress("0xB1De135E8cF1a5BdD96f4cBa4509cDd9cCB7c0e1")
	require.NoError(t, sess.Open(other))

	identity, err := sess.Identity()
	require.NoError(t, err)
	assert.Equal(t, other, identity)
}
