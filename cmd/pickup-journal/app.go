package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BearBump/PickupDesk/config"
	journalapi "github.com/BearBump/PickupDesk/internal/api/journal_api"
	"github.com/BearBump/PickupDesk/internal/broker/kafka"
	"github.com/BearBump/PickupDesk/internal/broker/messages"
	"github.com/BearBump/PickupDesk/internal/services/journal"
	"github.com/BearBump/PickupDesk/internal/storage/pgjournal"
)

// journalStore is what the recorder, the HTTP API and /readyz need from storage.
type journalStore interface {
	journal.Repository
	journalapi.Repository
	Ping(ctx context.Context) error
}

type changeConsumer interface {
	ConsumePickupChanged(ctx context.Context, handler func(ctx context.Context, msg messages.PickupChanged) error) error
	Close() error
}

type journalFactories struct {
	newStorage  func(cfg *config.Config) (st journalStore, closeFn func(), err error)
	newConsumer func(cfg *config.Config) changeConsumer
}

func defaultJournalFactories() journalFactories {
	return journalFactories{
		newStorage: func(cfg *config.Config) (journalStore, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgjournal.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config) changeConsumer {
			topic := cfg.Kafka.PickupChangedTopicName
			if topic == "" {
				topic = "pickup.changed"
			}
			group := cfg.PickupDesk.KafkaConsumerGroup
			if group == "" {
				group = "pickup-journal"
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
	}
}

type journalOpts struct {
	swaggerPath string
	onListen    func(httpAddr string)
}

// RunPickupJournal consumes pickup.changed into the journal and serves it over
// HTTP until ctx is done or either side fails.
func RunPickupJournal(ctx context.Context, cfg *config.Config, f journalFactories, opts journalOpts) error {
	httpAddr := cfg.PickupDesk.JournalHTTPAddr
	if httpAddr == "" {
		httpAddr = ":8090"
	}

	st, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	consumer := f.newConsumer(cfg)
	defer func() { _ = consumer.Close() }()

	rec := journal.New(st)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumeErr := make(chan error, 1)
	go func() {
		slog.Info("pickup journal consumer started")
		consumeErr <- consumer.ConsumePickupChanged(ctx, rec.Handle)
	}()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runJournalHTTPServer(ctx, journalHTTPOpts{
			httpAddr:    httpAddr,
			swaggerPath: opts.swaggerPath,
			onListen:    opts.onListen,
			store:       st,
			recorder:    rec,
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-consumeErr:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	case err := <-httpErr:
		return err
	}
}
