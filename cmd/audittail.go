/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datakeep/apiserver/config"
	"github.com/datakeep/apiserver/internal/logger"
	"github.com/datakeep/apiserver/internal/mq"
	"github.com/datakeep/apiserver/types"
)

// audittailCmd follows the audit fanout channel and prints each entry.
// Requires MQ_BACKEND to be configured; the server publishes to the same
// channel it reads from.
var audittailCmd = &cobra.Command{
	Use:   "audit-tail",
	Short: "Follow the audit event fanout channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.MQBackend == config.MQNone || cfg.MQBackend == "" {
			return errors.New("MQ_BACKEND must be set to follow the audit channel")
		}

		log, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := newTailBroker(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = broker.Close() }()

		err = broker.Subscribe(ctx, mq.AuditChannel, func(ctx context.Context, msg mq.Message) error {
			var entry types.AuditEntry
			if err := json.Unmarshal(msg.Data, &entry); err != nil {
				log.Warn("undecodable audit message", zap.String("id", msg.ID), zap.Error(err))
				return nil
			}
			log.Info("audit",
				zap.String("login", entry.Login),
				zap.String("request", entry.Request),
				zap.Time("timestamp", entry.Timestamp),
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(audittailCmd)
}

func newTailBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQBackend {
	case config.MQRabbitMQ:
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case config.MQPubSub:
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}
