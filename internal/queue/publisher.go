package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/showgrid/seat-reservation/internal/engine"
)

const bookingQueueName = "booking.confirmed"

// Publisher emits booking events to RabbitMQ.  A connection is dialed
// per publish; bookings are rare enough that holding a long-lived
// channel is not worth the reconnect handling.
type Publisher struct {
	URL string
}

// NewPublisher constructs a Publisher for the given broker URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url}
}

// PublishBookingConfirmed publishes a BookingConfirmedEvent to the
// booking.confirmed queue.  The function never panics; any error is
// logged and returned so the caller can choose to ignore it.  Messages
// are marked persistent.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, receipt *engine.BookingReceipt) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		bookingQueueName, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	event := BookingConfirmedEvent{
		BookingID: receipt.BookingID,
		ShowID:    receipt.ShowID,
		SeatIDs:   receipt.SeatIDs,
		BookedAt:  receipt.BookedAt.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		bookingQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
