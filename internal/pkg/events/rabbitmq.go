package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
)

const reconnectDelay = 5 * time.Second

// RabbitMQPublisher publishes lifecycle events to a topic exchange and
// redials in the background when the broker drops the connection.
type RabbitMQPublisher struct {
	url          string
	exchangeName string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done chan struct{}
	once sync.Once
}

// NewRabbitMQPublisher dials url and declares exchangeName.
func NewRabbitMQPublisher(url, exchangeName string) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{
		url:          url,
		exchangeName: exchangeName,
		done:         make(chan struct{}),
	}

	conn, channel, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.channel = channel

	go p.handleReconnect(conn)

	logger.Info("RabbitMQ publisher initialized (exchange=%s)", exchangeName)
	return p, nil
}

func (p *RabbitMQPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return conn, channel, nil
}

// Publish marshals event and sends it with routingKey.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.RLock()
	channel := p.channel
	p.mu.RUnlock()
	if channel == nil {
		return errors.New("RabbitMQ channel is not open")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    event.Timestamp,
			MessageId:    fmt.Sprintf("%s-%d", event.ReportID, time.Now().UnixNano()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	logger.Debug("Published %s for report %s", routingKey, event.ReportID)
	return nil
}

func (p *RabbitMQPublisher) handleReconnect(conn *amqp.Connection) {
	for {
		closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-p.done:
			return
		case closeErr, ok := <-closeChan:
			if !ok || closeErr == nil {
				return
			}
			logger.Error("RabbitMQ connection closed, reconnecting: %v", closeErr)
		}

		p.mu.Lock()
		p.channel = nil
		p.mu.Unlock()

		for {
			select {
			case <-p.done:
				return
			case <-time.After(reconnectDelay):
			}

			newConn, channel, err := p.dial()
			if err != nil {
				logger.Error("Failed to reconnect to RabbitMQ: %v", err)
				continue
			}

			p.mu.Lock()
			p.conn = newConn
			p.channel = channel
			p.mu.Unlock()

			conn = newConn
			logger.Info("Reconnected to RabbitMQ")
			break
		}
	}
}

// Close stops the reconnect loop and closes the connection.
func (p *RabbitMQPublisher) Close() error {
	p.once.Do(func() { close(p.done) })

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ channel: %v", err)
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
		p.conn = nil
	}
	logger.Info("RabbitMQ publisher closed")
	return nil
}
