package usecase

import (
	"context"
	"errors"
	"testing"

	"JournalDigest/internal/digest"
	"JournalDigest/internal/ports"
)

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(d *digest.Digest) (ports.Message, error) {
	if r.err != nil {
		return ports.Message{}, r.err
	}
	return ports.Message{Subject: "digest", Text: "body"}, nil
}

type recordingSender struct {
	err  error
	sent []ports.Message
}

func (s *recordingSender) Send(ctx context.Context, msg ports.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestDeliver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		renderErr error
		sendErr   error
		want      bool
	}{
		{name: "acknowledged", want: true},
		{name: "render error", renderErr: errors.New("bad template")},
		{name: "send error", sendErr: errors.New("535 auth failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &recordingSender{err: tt.sendErr}
			d := NewDelivery(stubRenderer{err: tt.renderErr}, sender, nil)

			if got := d.Deliver(context.Background(), digest.New()); got != tt.want {
				t.Fatalf("Deliver() = %v, want %v", got, tt.want)
			}
			if tt.want && len(sender.sent) != 1 {
				t.Fatalf("expected one message, got %d", len(sender.sent))
			}
		})
	}
}
