/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/profiledesk/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the account event feed",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log account events as they arrive",
	Long: `Subscribes to the account events channel and logs each event until
interrupted. Requires MQ_BACKEND to be set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer broker.Close()

		channel := cfg.MQ.AccountEventsChannel
		logger.Info("tailing account events", "backend", cfg.MQ.Backend, "channel", channel)

		err = broker.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
			event, err := mq.DecodeAccountEvent(msg)
			if err != nil {
				// Malformed messages are dropped rather than redelivered forever.
				logger.Warn("skipping malformed event", "id", msg.ID, "error", err)
				return nil
			}
			logger.Info("account event",
				"type", event.Type,
				"account_id", event.AccountID,
				"username", event.Username,
				"occurred_at", event.OccurredAt,
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
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
