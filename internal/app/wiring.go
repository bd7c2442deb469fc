// Package app builds the optional collaborators shared by the server and the CLI.
package app

import (
	"context"
	"time"

	"dealflow/internal/events"
	"dealflow/internal/mailer"
	"dealflow/internal/repository"
	"dealflow/internal/service"
	"dealflow/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const AuditBackendMongo = "mongo"

// Transport returns nil when SMTP is not configured.
func Transport(cfg config.SMTPConfig, logger *zap.Logger) mailer.Transport {
	t := mailer.NewSMTPTransport(cfg, logger)
	if t == nil {
		logger.Warn("SMTP not configured, notifications will stay queued")
		return nil
	}
	return t
}

func Publisher(cfg config.NATSConfig, logger *zap.Logger) events.Publisher {
	if cfg.URL == "" {
		return events.Nop{}
	}

	p, err := events.NewNATSPublisher(cfg.URL, cfg.Subject, logger)
	if err != nil {
		logger.Warn("NATS unavailable, deal events disabled", zap.Error(err))
		return events.Nop{}
	}
	logger.Info("Publishing deal events", zap.String("subject", cfg.Subject))
	return p
}

// AuditSink picks the audit store. A Mongo backend that cannot be reached falls
// back to the audit_log table. The returned func releases the connection.
func AuditSink(ctx context.Context, cfg config.AuditConfig, db *pgxpool.Pool, logger *zap.Logger) (service.AuditSink, func()) {
	fallback := repository.NewAuditRepository(db, logger)
	if cfg.Backend != AuditBackendMongo {
		return fallback, func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	if err != nil {
		logger.Warn("Mongo audit backend unavailable, using postgres", zap.Error(err))
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		return fallback, func() {}
	}

	logger.Info("Audit records go to MongoDB",
		zap.String("database", cfg.MongoDatabase),
		zap.String("collection", cfg.MongoCollection),
	)
	sink := repository.NewMongoAuditRepository(client, cfg.MongoDatabase, cfg.MongoCollection, logger)
	return sink, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}
