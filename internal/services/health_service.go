package services

import (
	"context"
	"time"

	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Pinger es cualquier dependencia capaz de verificar su propia salud
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthService verifica la conectividad con el store y, si existe, con Redis
type HealthService struct {
	db     Pinger
	cache  Pinger
	logger *logrus.Logger
	now    func() time.Time
}

// NewHealthService crea el servicio; cache puede ser nil cuando Redis está deshabilitado
func NewHealthService(db Pinger, cache Pinger, logger *logrus.Logger) *HealthService {
	return &HealthService{
		db:     db,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Check ejecuta el health check. El error solo refleja la base de datos;
// Redis es opcional y nunca vuelve unhealthy al servicio.
func (s *HealthService) Check(ctx context.Context) (*models.HealthStatus, error) {
	status := &models.HealthStatus{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		Database:  "connected",
		Cache:     "disabled",
	}

	if s.cache != nil {
		status.Cache = "connected"
		if err := s.cache.HealthCheck(ctx); err != nil {
			s.logger.WithError(err).Warn("Redis health check failed")
			status.Cache = "unavailable"
		}
	}

	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.WithError(err).Error("Database health check failed")
		status.Status = "unhealthy"
		status.Database = "disconnected"
		return status, err
	}

	return status, nil
}
