package usecase

import (
	"context"
	"log/slog"

	"JournalDigest/internal/digest"
	"JournalDigest/internal/logging"
	"JournalDigest/internal/ports"
)

// Renderer turns a digest into a message.
type Renderer interface {
	Render(d *digest.Digest) (ports.Message, error)
}

// Delivery renders a digest and hands it to the configured transport.
type Delivery struct {
	renderer Renderer
	sender   ports.Sender
	logger   *slog.Logger
}

var _ Deliverer = (*Delivery)(nil)

// NewDelivery wires renderer and transport.
func NewDelivery(renderer Renderer, sender ports.Sender, logger *slog.Logger) *Delivery {
	return &Delivery{renderer: renderer, sender: sender, logger: logging.OrDiscard(logger)}
}

// Deliver returns true only when the transport acknowledged the message. Failures
// are logged and never escape.
func (d *Delivery) Deliver(ctx context.Context, dg *digest.Digest) bool {
	msg, err := d.renderer.Render(dg)
	if err != nil {
		d.logger.Error("render digest", "error", err)
		return false
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error("send digest", "subject", msg.Subject, "error", err)
		return false
	}

	d.logger.Info("digest sent", "subject", msg.Subject)
	return true
}
