package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// ScooterEventHandler applies fleet events to bookings.
type ScooterEventHandler interface {
    StartBooking(ctx context.Context, bookingID string, at time.Time) error
    CloseBooking(ctx context.Context, bookingID string, at time.Time) error
}

// Consumer reads scooter events from a durable queue bound to the
// fleet exchange and hands them to a ScooterEventHandler.
type Consumer struct {
    URL      string
    Queue    string
    Exchange string // optional; when set the queue is bound with "scooter.#"
    Handler  ScooterEventHandler
    Log      *logrus.Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broken
// connections are redialled with exponential backoff; a message that
// cannot be handled is rejected without requeue so the loop keeps going.
func (c *Consumer) Run(ctx context.Context) error {
    log := c.Log.WithField("queue", c.Queue)
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.WithError(err).Warnf("scooter-consumer: failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("scooter-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("scooter-consumer: set QoS failed")
    }

    if _, err = ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if c.Exchange != "" {
        if err := ch.ExchangeDeclare(c.Exchange, "topic", true, false, false, false, nil); err != nil {
            return fmt.Errorf("exchange declare: %w", err)
        }
        if err := ch.QueueBind(c.Queue, "scooter.#", c.Exchange, false, nil); err != nil {
            return fmt.Errorf("queue bind: %w", err)
        }
    }

    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.HandleMessage(ctx, d.Body); err != nil {
                c.Log.WithError(err).Error("scooter-consumer: handle message failed")
                _ = d.Nack(false, false) // no requeue
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one scooter event and applies it.
func (c *Consumer) HandleMessage(ctx context.Context, body []byte) error {
    var ev ScooterEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := ev.Validate(); err != nil {
        return err
    }
    at := ev.At
    if at.IsZero() {
        at = time.Now()
    }
    c.Log.WithFields(logrus.Fields{"booking_id": ev.BookingID, "event": ev.Event}).Info("scooter event received")
    switch ev.Event {
    case ScooterPickedUp:
        return c.Handler.StartBooking(ctx, ev.BookingID, at)
    default:
        return c.Handler.CloseBooking(ctx, ev.BookingID, at)
    }
}
