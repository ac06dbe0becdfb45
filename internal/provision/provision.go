// Package provision creates new client businesses: a tenant record in the
// admin database plus an isolated order database of their own.
package provision

import (
	"errors"
	"time"

	"jewelry-service/internal/apperr"
	"jewelry-service/internal/model"
	"jewelry-service/pkg/database"
	"jewelry-service/prometheus"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Database identifiers are generated, never sequential, so concurrent
// provisioning cannot collide. The alphabet is restricted to characters
// that are safe in a Postgres database name.
const (
	dbNamePrefix   = "jewelry_client_"
	dbNameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	dbNameLength   = 10
)

// Service provisions tenants. It owns the compensating rollback: a client
// record never outlives a failed database setup.
type Service struct {
	registry *database.Registry
	log      *zap.Logger
}

// NewService constructs a provisioning service on top of the connection
// registry.
func NewService(registry *database.Registry, log *zap.Logger) *Service {
	return &Service{registry: registry, log: log}
}

// Provision creates a client record in the admin database, creates the
// client's isolated database, and eagerly establishes its connection so an
// unreachable or misconfigured database fails fast. If any step after the
// record insert fails, the record is deleted again before the error is
// reported.
func (s *Service) Provision(businessName, email, passwordHash string) (*model.Client, error) {
	if businessName == "" || email == "" || passwordHash == "" {
		return nil, apperr.Validation("Business name, email, and password are required")
	}

	admin, err := s.registry.Admin()
	if err != nil {
		return nil, err
	}

	// Uniqueness is checked up front so a duplicate email surfaces as a
	// domain error rather than a constraint violation.
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.Client
	result := admin.Where("email = ?", email).First(&existing)
	if result.Error == nil {
		prometheus.RecordProvision("rejected")
		return nil, apperr.Validation("A client with this email already exists")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, apperr.Connection(result.Error, "Error checking existing clients")
	}

	id, err := gonanoid.Generate(dbNameAlphabet, dbNameLength)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to generate database identifier")
	}
	dbName := dbNamePrefix + id

	client := model.Client{
		BusinessName: businessName,
		Email:        email,
		PasswordHash: passwordHash,
		DBName:       dbName,
		Active:       true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := admin.Create(&client).Error; err != nil {
		return nil, apperr.Connection(err, "Error creating client")
	}

	// From here on every failure must compensate by deleting the record.
	if err := s.setupTenantDatabase(admin, dbName); err != nil {
		s.rollback(admin, &client, err)
		prometheus.RecordProvision("rolled_back")
		return nil, apperr.Provisioning(err, "Failed to create client database")
	}

	prometheus.RecordProvision("success")
	s.log.Info("Client provisioned",
		zap.Uint("client_id", client.ID),
		zap.String("business_name", client.BusinessName),
		zap.String("db_name", client.DBName))
	return &client, nil
}

// setupTenantDatabase creates the tenant's database and eagerly connects to
// it through the registry.
func (s *Service) setupTenantDatabase(admin *database.Conn, dbName string) error {
	if err := admin.Exec(`CREATE DATABASE "` + dbName + `"`).Error; err != nil {
		return err
	}
	if _, err := s.registry.Tenant(dbName); err != nil {
		return err
	}
	return nil
}

// rollback deletes the just-created client record. Logged on its own so a
// failed rollback (silent data loss) is observable.
func (s *Service) rollback(admin *database.Conn, client *model.Client, cause error) {
	s.log.Error("Provisioning failed, rolling back client record",
		zap.Uint("client_id", client.ID),
		zap.String("db_name", client.DBName),
		zap.Error(cause))

	if err := admin.Unscoped().Delete(client).Error; err != nil {
		s.log.Error("Rollback failed, orphaned client record remains",
			zap.Uint("client_id", client.ID),
			zap.String("db_name", client.DBName),
			zap.Error(err))
		return
	}

	s.log.Info("Client record rolled back", zap.Uint("client_id", client.ID))
}
