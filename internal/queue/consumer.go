package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/cafevt/storefront/internal/mail"
	"github.com/cafevt/storefront/internal/service"
)

// StartPurchaseConsumer connects to RabbitMQ, declares the durable
// purchase.completed queue, and consumes events. For each event it credits
// loyalty points (idempotent per purchase id) and sends the confirmation
// email when a mailer is configured. The function runs a reconnect loop
// with exponential backoff and never returns under normal operation;
// processing errors nack the message for redelivery.
func StartPurchaseConsumer(loyalty *service.LoyaltyService, mailer *mail.Mailer) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			logrus.WithError(err).Warnf("purchase-consumer: dial failed; retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, loyalty, mailer); err != nil {
			logrus.WithError(err).Warn("purchase-consumer: consume loop ended; reconnecting")
			time.Sleep(2 * time.Second)
		}
		_ = conn.Close()
	}
}

func consumeLoop(conn *amqp.Connection, loyalty *service.LoyaltyService, mailer *mail.Mailer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("purchase-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(PurchaseQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(PurchaseQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		ev, err := decodeEvent(d.Body)
		if err != nil {
			// Malformed payloads stay malformed; requeueing would spin
			// on the same message forever and starve the queue.
			logrus.WithError(err).Warn("purchase-consumer: dropping malformed event")
			_ = d.Nack(false, false)
			continue
		}
		if err := handleEvent(ev, loyalty, mailer); err != nil {
			logrus.WithError(err).Warn("purchase-consumer: handle event failed")
			_ = d.Nack(false, true) // transient; the loyalty credit is idempotent
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

// decodeEvent parses a purchase.completed payload. A decode failure is
// permanent: the consumer drops the message instead of requeueing it.
func decodeEvent(body []byte) (PurchaseCompletedEvent, error) {
	var ev PurchaseCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal event: %w", err)
	}
	if ev.PurchaseID == 0 || ev.UserID == 0 {
		return ev, fmt.Errorf("event missing purchase_id or user_id")
	}
	return ev, nil
}

func handleEvent(ev PurchaseCompletedEvent, loyalty *service.LoyaltyService, mailer *mail.Mailer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	credited, err := loyalty.CreditPurchase(ctx, ev.UserID, ev.PurchaseID, ev.TotalCents)
	if err != nil {
		return fmt.Errorf("credit loyalty points: %w", err)
	}
	if credited {
		logrus.WithFields(logrus.Fields{
			"purchase_id": ev.PurchaseID,
			"user_id":     ev.UserID,
			"points":      loyalty.PointsFor(ev.TotalCents),
		}).Info("purchase-consumer: loyalty points credited")
	}

	// The email is sent only on first processing; a redelivered event that
	// already credited its points skips the mail as well.
	if credited && mailer != nil && ev.UserEmail != "" {
		lines := make([]mail.OrderLine, 0, len(ev.Items))
		for _, it := range ev.Items {
			lines = append(lines, mail.OrderLine{Name: it.ProductName, Quantity: it.Quantity, PriceCents: it.UnitPriceCents})
		}
		if err := mailer.SendOrderConfirmation(ev.UserEmail, ev.UserName, ev.PurchaseID, ev.TotalCents, lines); err != nil {
			// Mail failure is logged but does not requeue: points are
			// already credited and a redelivery would not resend anyway.
			logrus.WithError(err).Warn("purchase-consumer: confirmation mail failed")
		}
	}
	return nil
}
