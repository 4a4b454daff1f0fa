package mail

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/logging"
)

var ErrQueueFull = errors.New("mail queue full")

// Dispatcher delivers messages in the background so request handlers do not
// wait on SMTP. Failed deliveries are logged and dropped.
type Dispatcher struct {
	mailer  Mailer
	log     logging.Logger
	queue   chan Message
	timeout time.Duration
}

func NewDispatcher(m Mailer, l logging.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		mailer:  m,
		log:     l,
		queue:   make(chan Message, size),
		timeout: 30 * time.Second,
	}
}

// Send enqueues msg. It satisfies Mailer so services can use a Dispatcher
// in place of a synchronous mailer.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	select {
	case d.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is cancelled, then drains what is
// left in the queue before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(context.WithoutCancel(ctx), msg)
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		d.log.Error(ctx, "mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.log.Debug(ctx, "mail delivered", "to", msg.To)
}
