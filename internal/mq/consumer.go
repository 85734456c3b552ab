// Package mq provides the RabbitMQ consumer that keeps role caches in step with the
// user directory. When an administrator changes a user's roles, the directory publishes to
// the role.events exchange and every authz replica evicts or replaces its cached entry
// instead of serving stale roles until the TTL expires.
package mq

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eco2-team/backend/domains/platform-authz/internal/cache"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
	"github.com/eco2-team/backend/domains/platform-authz/internal/roles"
)

const (
	// exchangeName is the fanout exchange for role change events.
	exchangeName = "role.events"
	// exchangeType is fanout so every replica sees every event.
	exchangeType = "fanout"
	// reconnectDelay is the delay before attempting to reconnect.
	reconnectDelay = 5 * time.Second
	// handleTimeout bounds cache calls made for one event.
	handleTimeout = 2 * time.Second
)

// Event types
const (
	EventInvalidate = "invalidate"
	EventUpdate     = "update"
	// EventFlush follows bulk directory imports and carries no email.
	EventFlush = "flush"
)

// Metrics for MQ consumer
var (
	mqEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platform_authz",
		Subsystem: "mq",
		Name:      "events_received_total",
		Help:      "Total number of events received from RabbitMQ",
	}, []string{"type"})

	mqEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platform_authz",
		Subsystem: "mq",
		Name:      "events_processed_total",
		Help:      "Total number of events successfully processed",
	}, []string{"type"})

	mqEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "platform_authz",
		Subsystem: "mq",
		Name:      "events_failed_total",
		Help:      "Total number of events that failed to process",
	})

	mqConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "platform_authz",
		Subsystem: "mq",
		Name:      "connection_status",
		Help:      "Current connection status (1=connected, 0=disconnected)",
	})

	mqReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "platform_authz",
		Subsystem: "mq",
		Name:      "reconnects_total",
		Help:      "Total number of reconnection attempts",
	})
)

// RoleEvent is published by the user directory when a user's roles change.
type RoleEvent struct {
	Type  string   `json:"type"`            // "invalidate", "update" or "flush"
	Email string   `json:"email"`           // Affected user
	Roles []string `json:"roles,omitempty"` // New roles, update only
}

// RoleEventConsumer consumes role events from RabbitMQ.
type RoleEventConsumer struct {
	amqpURL  string
	cache    cache.RoleCache
	logger   *logging.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewRoleEventConsumer creates a new RoleEventConsumer.
func NewRoleEventConsumer(amqpURL string, c cache.RoleCache, logger *logging.Logger) *RoleEventConsumer {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &RoleEventConsumer{
		amqpURL: amqpURL,
		cache:   c,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start begins consuming events from RabbitMQ.
// It will automatically reconnect on connection failure.
func (c *RoleEventConsumer) Start() {
	go c.consumeLoop()
}

// Stop stops the consumer. It is safe to call more than once.
func (c *RoleEventConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// consumeLoop handles connection and reconnection to RabbitMQ.
func (c *RoleEventConsumer) consumeLoop() {
	for {
		select {
		case <-c.done:
			c.logger.Info("MQ consumer stopped")
			return
		default:
		}

		if err := c.connect(); err != nil {
			c.logger.Error("MQ connection failed",
				constants.ECSFieldErrorMessage, err.Error(),
				"retry_in", reconnectDelay.String(),
			)
			metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeMQ).Inc()
			mqConnectionStatus.Set(0)
			mqReconnects.Inc()

			select {
			case <-c.done:
			case <-time.After(reconnectDelay):
			}
		}
	}
}

// connect establishes a connection to RabbitMQ and consumes until it drops or Stop is called.
func (c *RoleEventConsumer) connect() error {
	conn, err := amqp.Dial(c.amqpURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Declare fanout exchange
	err = ch.ExchangeDeclare(
		exchangeName, // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return err
	}

	// Anonymous exclusive queue per replica
	q, err := ch.QueueDeclare(
		"",    // name (auto-generated)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	err = ch.QueueBind(
		q.Name,       // queue name
		"",           // routing key (ignored for fanout)
		exchangeName, // exchange
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // arguments
	)
	if err != nil {
		return err
	}

	mqConnectionStatus.Set(1)
	c.logger.Info("MQ consumer connected",
		"exchange", exchangeName,
		"queue", q.Name,
	)

	connClose := conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-c.done:
			mqConnectionStatus.Set(0)
			return nil
		case err := <-connClose:
			c.logger.Warn("MQ connection closed", constants.ECSFieldErrorMessage, errString(err))
			mqConnectionStatus.Set(0)
			return err
		case msg, ok := <-msgs:
			if !ok {
				mqConnectionStatus.Set(0)
				return amqp.ErrClosed
			}
			c.handleMessage(msg.Body)
		}
	}
}

// handleMessage applies a single role event to the cache.
func (c *RoleEventConsumer) handleMessage(body []byte) {
	var event RoleEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Warn("Failed to unmarshal event",
			constants.ECSFieldErrorMessage, err.Error(),
		)
		mqEventsFailed.Inc()
		return
	}

	mqEventsReceived.WithLabelValues(event.Type).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if event.Type == EventFlush {
		if _, err := c.cache.Flush(ctx); err != nil {
			mqEventsFailed.Inc()
			return
		}
		mqEventsProcessed.WithLabelValues(EventFlush).Inc()
		return
	}

	if event.Email == "" {
		c.logger.Warn("Received role event with empty email", "type", event.Type)
		mqEventsFailed.Inc()
		return
	}

	switch event.Type {
	case EventInvalidate:
		c.cache.Invalidate(ctx, event.Email)
		c.logger.WithUser(event.Email).Debug("Role cache entry invalidated")
		mqEventsProcessed.WithLabelValues(EventInvalidate).Inc()

	case EventUpdate:
		// An update without valid roles evicts; the next request reads the source.
		if len(event.Roles) == 0 || roles.Validate(event.Roles) != nil {
			c.cache.Invalidate(ctx, event.Email)
			c.logger.WithUser(event.Email).Debug("Role update without usable roles, entry invalidated")
			mqEventsProcessed.WithLabelValues(EventUpdate).Inc()
			return
		}
		c.cache.Set(ctx, event.Email, event.Roles)
		c.logger.WithUser(event.Email).Debug("Role cache entry replaced",
			constants.ECSFieldUserRoles, strings.Join(event.Roles, constants.RoleSeparator),
		)
		mqEventsProcessed.WithLabelValues(EventUpdate).Inc()

	default:
		c.logger.Warn("Unknown event type",
			"type", event.Type,
		)
		mqEventsFailed.Inc()
	}
}

func errString(err *amqp.Error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
