package database

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn returns a Conn whose migrations are counted instead of executed.
func stubConn(name string, migrateErr error) (*Conn, *int) {
	conn := NewConn(nil, name)
	calls := 0
	conn.migrate = func(dst ...interface{}) error {
		calls++
		return migrateErr
	}
	return conn, &calls
}

func TestModelsForRegistersOnce(t *testing.T) {
	conn, calls := stubConn("jewelry_client_abc123defg", nil)

	first, err := ModelsFor(conn)
	require.NoError(t, err)
	require.NotNil(t, first.Orders)

	// Second invocation for the same connection must be a no-op, not an
	// error.
	second, err := ModelsFor(conn)
	require.NoError(t, err)
	require.NotNil(t, second.Orders)

	assert.Equal(t, 1, *calls, "schema registered at most once per connection")
}

func TestModelsForIndependentConnections(t *testing.T) {
	connA, callsA := stubConn("jewelry_client_aaaaaaaaaa", nil)
	connB, callsB := stubConn("jewelry_client_bbbbbbbbbb", nil)

	_, err := ModelsFor(connA)
	require.NoError(t, err)
	_, err = ModelsFor(connB)
	require.NoError(t, err)

	assert.Equal(t, 1, *callsA)
	assert.Equal(t, 1, *callsB)
}

func TestModelsForFailureAllowsRetry(t *testing.T) {
	conn, calls := stubConn("jewelry_client_flaky00000", errors.New("migration failed"))

	_, err := ModelsFor(conn)
	require.Error(t, err)

	// A failed registration must not be recorded as done.
	conn.migrate = func(dst ...interface{}) error {
		(*calls)++
		return nil
	}
	models, err := ModelsFor(conn)
	require.NoError(t, err)
	assert.NotNil(t, models.Orders)
	assert.Equal(t, 2, *calls)
}

func TestEnsureRegisteredTracksSchemasSeparately(t *testing.T) {
	conn, calls := stubConn("jewelry_admin", nil)

	require.NoError(t, conn.EnsureRegistered("admin"))
	require.NoError(t, conn.EnsureRegistered("orders"))
	require.NoError(t, conn.EnsureRegistered("admin"))

	assert.Equal(t, 2, *calls, "each schema key migrates once")
}
