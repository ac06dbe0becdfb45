package database

import (
	"sync"

	"gorm.io/gorm"
)

// Conn wraps a gorm connection together with the set of schemas already
// registered on it. Keeping the bookkeeping on the connection itself means a
// schema can never be registered against the wrong database: the factory only
// ever consults the connection it was handed.
type Conn struct {
	*gorm.DB

	name string

	mu         sync.Mutex
	registered map[string]bool
	migrate    func(dst ...interface{}) error
}

// NewConn wraps an established gorm connection. name is the database name
// the connection is bound to.
func NewConn(db *gorm.DB, name string) *Conn {
	return &Conn{
		DB:         db,
		name:       name,
		registered: make(map[string]bool),
		migrate: func(dst ...interface{}) error {
			return db.AutoMigrate(dst...)
		},
	}
}

// Name returns the database name this connection is bound to.
func (c *Conn) Name() string { return c.name }

// EnsureRegistered migrates the given models at most once per schema key for
// the lifetime of this connection. Repeated calls for an already-registered
// schema are a no-op, not an error.
func (c *Conn) EnsureRegistered(schema string, models ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registered[schema] {
		return nil
	}
	if err := c.migrate(models...); err != nil {
		return err
	}
	c.registered[schema] = true
	return nil
}
