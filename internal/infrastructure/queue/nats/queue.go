package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/resilience"
)

const (
	DefaultSubject = "resume.extractions"
	consumerGroup  = "audit-workers"
)

// Queue carries extraction audit records between the API and the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	if subject == "" {
		subject = DefaultSubject
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("resume-form-filler"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// RecordExtraction makes the queue usable directly as an audit sink.
func (q *Queue) RecordExtraction(ctx context.Context, record domain.ExtractionRecord) error {
	return q.PublishExtraction(ctx, record)
}

func (q *Queue) PublishExtraction(ctx context.Context, record domain.ExtractionRecord) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeExtractions blocks until ctx is cancelled, then drains in-flight
// messages. Handler errors are logged; malformed payloads are dropped.
func (q *Queue) SubscribeExtractions(ctx context.Context, handler func(context.Context, domain.ExtractionRecord) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, consumerGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		record, err := decodeRecord(msg.Data)
		if err != nil {
			q.logger.Warn("extraction_event_malformed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, record); err != nil {
			q.logger.Error("extraction_event_handler_failed", "record_id", record.ID, "session_id", record.SessionID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) Name() string   { return "nats" }
func (q *Queue) Critical() bool { return false }

func (q *Queue) Ping(ctx context.Context) error {
	if !q.conn.IsConnected() {
		return fmt.Errorf("nats status %s", q.conn.Status())
	}
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := q.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

func encodeRecord(record domain.ExtractionRecord) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode extraction record: %w", err)
	}
	return payload, nil
}

func decodeRecord(payload []byte) (domain.ExtractionRecord, error) {
	var record domain.ExtractionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.ExtractionRecord{}, fmt.Errorf("decode extraction record: %w", err)
	}
	if record.ID == "" || record.SessionID == "" {
		return domain.ExtractionRecord{}, errors.New("decode extraction record: missing id or session_id")
	}
	return record, nil
}
