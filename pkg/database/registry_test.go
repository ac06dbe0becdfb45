package database

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jewelry-service/internal/apperr"
	"jewelry-service/pkg/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDBConfig() *config.DBConfig {
	return &config.DBConfig{
		Host:        "localhost",
		Port:        "5432",
		User:        "postgres",
		Password:    "password",
		AdminDBName: "jewelry_admin",
		SSLMode:     "disable",
	}
}

func TestTenantReturnsCachedHandle(t *testing.T) {
	var opens int64
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		atomic.AddInt64(&opens, 1)
		return NewConn(nil, name), nil
	}))

	first, err := reg.Tenant("jewelry_client_abc123defg")
	require.NoError(t, err)
	second, err := reg.Tenant("jewelry_client_abc123defg")
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated calls must return the identical handle")
	assert.EqualValues(t, 1, atomic.LoadInt64(&opens))
}

func TestTenantDistinctPerIdentifier(t *testing.T) {
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		return NewConn(nil, name), nil
	}))

	a, err := reg.Tenant("jewelry_client_aaaaaaaaaa")
	require.NoError(t, err)
	b, err := reg.Tenant("jewelry_client_bbbbbbbbbb")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, "jewelry_client_aaaaaaaaaa", a.Name())
	assert.Equal(t, "jewelry_client_bbbbbbbbbb", b.Name())
}

func TestTenantConcurrentFirstConnectCoalesced(t *testing.T) {
	var opens int64
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		atomic.AddInt64(&opens, 1)
		time.Sleep(20 * time.Millisecond) // hold the attempt open so callers pile up
		return NewConn(nil, name), nil
	}))

	const callers = 16
	conns := make([]*Conn, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := reg.Tenant("jewelry_client_racetarget")
			assert.NoError(t, err)
			conns[i] = conn
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&opens), "exactly one underlying connection")
	for i := 1; i < callers; i++ {
		assert.Same(t, conns[0], conns[i])
	}
}

func TestTenantFailureLeavesNoCacheEntry(t *testing.T) {
	var opens int64
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		if atomic.AddInt64(&opens, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		return NewConn(nil, name), nil
	}))

	_, err := reg.Tenant("jewelry_client_flaky00000")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConnection, apperr.KindOf(err))

	// The failed attempt must not poison the cache; a retry connects.
	conn, err := reg.Tenant("jewelry_client_flaky00000")
	require.NoError(t, err)
	assert.Equal(t, "jewelry_client_flaky00000", conn.Name())
	assert.EqualValues(t, 2, atomic.LoadInt64(&opens))
}

func TestTenantEmptyIdentifierRejected(t *testing.T) {
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		t.Fatal("open must not be called")
		return nil, nil
	}))

	_, err := reg.Tenant("")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdminSingleton(t *testing.T) {
	var opens int64
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		atomic.AddInt64(&opens, 1)
		return NewConn(nil, name), nil
	}))

	const callers = 8
	conns := make([]*Conn, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := reg.Admin()
			assert.NoError(t, err)
			conns[i] = conn
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&opens))
	for i := 1; i < callers; i++ {
		assert.Same(t, conns[0], conns[i])
	}
	assert.Equal(t, "jewelry_admin", conns[0].Name())
}

func TestAdminIndependentOfTenants(t *testing.T) {
	reg := NewRegistry(testDBConfig(), zap.NewNop(), WithOpenFunc(func(dsn, name string) (*Conn, error) {
		return NewConn(nil, name), nil
	}))

	admin, err := reg.Admin()
	require.NoError(t, err)
	tenant, err := reg.Tenant("jewelry_client_cccccccccc")
	require.NoError(t, err)

	assert.NotSame(t, admin, tenant)
}
