package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/contacts-api/internal/mail"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends EmailEvents to a durable RabbitMQ queue.  It satisfies the
// same mailer interface as mail.SMTPSender, so the auth service does not
// know which transport is in use.  Each publish opens its own connection;
// mail volume is a handful of messages per signup or reset.
type Publisher struct {
	queue string
	log   *zap.Logger
	open  func() (channel, func(), error)
	now   func() time.Time
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		queue: queue,
		log:   log,
		open:  dialChannel(url),
		now:   time.Now,
	}
}

func dialChannel(url string) func() (channel, func(), error) {
	return func() (channel, func(), error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return ch, func() {
			_ = ch.Close()
			_ = conn.Close()
		}, nil
	}
}

func (p *Publisher) SendConfirmation(ctx context.Context, to, username, token string) error {
	return p.Publish(ctx, EmailEvent{Kind: mail.KindConfirmEmail, To: to, Username: username, Token: token})
}

func (p *Publisher) SendPasswordReset(ctx context.Context, to, username, token string) error {
	return p.Publish(ctx, EmailEvent{Kind: mail.KindResetPassword, To: to, Username: username, Token: token})
}

// Publish declares the queue and publishes ev as a persistent JSON message.
// Errors are logged and returned; callers run this from a background task
// and ignore them.
func (p *Publisher) Publish(ctx context.Context, ev EmailEvent) error {
	if ev.CreatedAt == "" {
		ev.CreatedAt = p.now().UTC().Format(time.RFC3339)
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	ch, closeFn, err := p.open()
	if err != nil {
		p.log.Error("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer closeFn()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Error("rabbitmq: queue declare failed", zap.String("queue", p.queue), zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Error("rabbitmq: publish failed", zap.String("queue", p.queue), zap.Error(err))
		return err
	}
	return nil
}
