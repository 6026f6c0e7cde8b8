package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends JSON messages to a durable topic exchange over one
// long-lived connection.  The channel is reopened on the next publish if
// the broker closed it.
type Publisher struct {
    url      string
    exchange string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
    p := &Publisher{url: url, exchange: exchange}
    p.mu.Lock()
    defer p.mu.Unlock()
    if err := p.connectLocked(); err != nil {
        return nil, err
    }
    return p, nil
}

func (p *Publisher) connectLocked() error {
    if p.conn == nil || p.conn.IsClosed() {
        conn, err := amqp.Dial(p.url)
        if err != nil {
            return fmt.Errorf("rabbitmq: dial: %w", err)
        }
        p.conn = conn
        p.ch = nil
    }
    if p.ch == nil || p.ch.IsClosed() {
        ch, err := p.conn.Channel()
        if err != nil {
            return fmt.Errorf("rabbitmq: channel open: %w", err)
        }
        // Durable so messages survive broker restarts.
        if err := ch.ExchangeDeclare(
            p.exchange, // name
            "topic",    // kind
            true,       // durable
            false,      // autoDelete
            false,      // internal
            false,      // noWait
            nil,        // args
        ); err != nil {
            _ = ch.Close()
            return fmt.Errorf("rabbitmq: exchange declare: %w", err)
        }
        p.ch = ch
    }
    return nil
}

// PublishJSON marshals v and publishes it with the given routing key.
// Messages are marked as persistent.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, v interface{}) error {
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    if err := p.connectLocked(); err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq: publish %s: %w", routingKey, err)
    }
    return nil
}

// Publish sends a booking event keyed by its type.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
    return p.PublishJSON(ctx, ev.Type, ev)
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        return p.conn.Close()
    }
    return nil
}
