package database

import (
	"sync"

	"jewelry-service/internal/apperr"
	"jewelry-service/pkg/config"
	"jewelry-service/prometheus"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// adminKey is the singleflight key reserved for the admin connection. The
// NUL prefix keeps it out of the tenant database-name namespace.
const adminKey = "\x00admin"

// OpenFunc establishes a database connection. Injectable so tests can run
// the registry without a database host.
type OpenFunc func(dsn, name string) (*Conn, error)

// Option configures a Registry.
type Option func(*Registry)

// WithOpenFunc replaces the connection opener.
func WithOpenFunc(open OpenFunc) Option {
	return func(r *Registry) { r.open = open }
}

// Registry caches live database connections: one for the shared admin
// database plus one per tenant database identifier. Connections are opened
// lazily; concurrent first requests for the same key are coalesced through
// singleflight so exactly one underlying connection is ever established. A
// failed attempt leaves no cache entry behind, so a later call may retry.
type Registry struct {
	cfg  *config.DBConfig
	log  *zap.Logger
	open OpenFunc

	sfg singleflight.Group

	mu      sync.RWMutex
	admin   *Conn
	tenants map[string]*Conn
}

// NewRegistry constructs a Registry. It performs no I/O; connections are
// opened on first use.
func NewRegistry(cfg *config.DBConfig, log *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		cfg:     cfg,
		log:     log,
		tenants: make(map[string]*Conn),
	}
	r.open = r.openGorm
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Admin returns the connection to the shared admin database, establishing it
// on first call and returning the cached handle afterwards.
func (r *Registry) Admin() (*Conn, error) {
	r.mu.RLock()
	admin := r.admin
	r.mu.RUnlock()
	if admin != nil {
		return admin, nil
	}

	v, err, _ := r.sfg.Do(adminKey, func() (interface{}, error) {
		// Double-check after the singleflight barrier.
		r.mu.RLock()
		admin := r.admin
		r.mu.RUnlock()
		if admin != nil {
			return admin, nil
		}

		conn, err := r.open(r.cfg.AdminDSN(), r.cfg.AdminDBName)
		if err != nil {
			prometheus.RecordConnectionError("admin")
			r.log.Error("Failed to connect to admin database", zap.Error(err))
			return nil, apperr.Connection(err, "Admin database unreachable")
		}

		r.mu.Lock()
		r.admin = conn
		r.mu.Unlock()

		r.log.Info("Admin database connection established",
			zap.String("db_name", r.cfg.AdminDBName))
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// Tenant returns the connection to a tenant's isolated database, keyed by
// its database identifier. The first request for a never-seen identifier
// initiates the connect; concurrent callers await the same attempt. On
// failure every waiter receives the error and nothing is cached.
func (r *Registry) Tenant(dbName string) (*Conn, error) {
	if dbName == "" {
		return nil, apperr.Validation("Tenant database identifier is required")
	}

	r.mu.RLock()
	conn, ok := r.tenants[dbName]
	r.mu.RUnlock()
	if ok {
		return conn, nil
	}

	v, err, _ := r.sfg.Do(dbName, func() (interface{}, error) {
		r.mu.RLock()
		conn, ok := r.tenants[dbName]
		r.mu.RUnlock()
		if ok {
			return conn, nil
		}

		conn, err := r.open(r.cfg.TenantDSN(dbName), dbName)
		if err != nil {
			prometheus.RecordConnectionError("tenant")
			r.log.Error("Failed to connect to tenant database",
				zap.String("db_name", dbName), zap.Error(err))
			return nil, apperr.Connection(err, "Tenant database unreachable")
		}

		r.mu.Lock()
		r.tenants[dbName] = conn
		r.mu.Unlock()

		prometheus.IncreaseTenantConnections()
		r.log.Info("Tenant database connection established",
			zap.String("db_name", dbName))
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// openGorm is the production opener: a gorm/postgres connection with the
// pool limits from config.
func (r *Registry) openGorm(dsn, name string) (*Conn, error) {
	// PreferSimpleProtocol disables implicit prepared statements, which
	// otherwise collide when the same statement is prepared twice.
	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: gormlogger.Default.LogMode(r.cfg.LogLevel),
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open database %q", name)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "unwrap connection pool for %q", name)
	}

	if r.cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(r.cfg.MaxIdleConns)
	}
	if r.cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(r.cfg.MaxOpenConns)
	}
	if r.cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(r.cfg.ConnMaxLifetime)
	}

	return NewConn(db, name), nil
}
