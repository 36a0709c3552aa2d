package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/config"
	"github.com/realestate-platform/property-service/internal/entity"
)

const (
	PropertyCreatedSubject = "property.created"
	PropertyUpdatedSubject = "property.updated"
	PropertyDeletedSubject = "property.deleted"
)

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

type propertyEventPayload struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Price        float64 `json:"price"`
	CodeInternal string  `json:"code_internal"`
	Year         int     `json:"year"`
}

type deletedEventPayload struct {
	ID string `json:"id"`
}

func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) publishProperty(subject string, property *entity.Property) error {
	payload := propertyEventPayload{
		ID:           property.ID,
		OwnerID:      property.OwnerID,
		Name:         property.Name,
		Address:      property.Address,
		Price:        property.Price,
		CodeInternal: property.CodeInternal,
		Year:         property.Year,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal property for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", subject),
			zap.String("property_id", property.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Info("Published NATS message",
		zap.String("subject", subject),
		zap.String("property_id", property.ID),
	)
	return nil
}

func (p *Publisher) PublishPropertyCreated(ctx context.Context, property *entity.Property) error {
	return p.publishProperty(PropertyCreatedSubject, property)
}

func (p *Publisher) PublishPropertyUpdated(ctx context.Context, property *entity.Property) error {
	return p.publishProperty(PropertyUpdatedSubject, property)
}

func (p *Publisher) PublishPropertyDeleted(ctx context.Context, propertyID string) error {
	data, err := json.Marshal(deletedEventPayload{ID: propertyID})
	if err != nil {
		return fmt.Errorf("failed to marshal property ID for %s: %w", PropertyDeletedSubject, err)
	}

	if err := p.nc.Publish(PropertyDeletedSubject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", PropertyDeletedSubject),
			zap.String("property_id", propertyID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", PropertyDeletedSubject, err)
	}
	p.logger.Info("Published NATS message",
		zap.String("subject", PropertyDeletedSubject),
		zap.String("property_id", propertyID),
	)
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
