package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// MsgPublisher is the part of *nats.Conn used by NATSSink.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSSink publishes every frame as a NATS message.
//
// The payload is sent as the message body with the frame id and media type
// in the Content-ID and Content-Type headers. Published messages cannot be
// recalled, so their handles release nothing.
type NATSSink struct {
	pub     MsgPublisher
	subject string
}

// NewNATSSink publishes frames on subject.
func NewNATSSink(pub MsgPublisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

// Put publishes the frame.
func (s *NATSSink) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := nats.NewMsg(s.subject)
	msg.Data = frame.Payload
	msg.Header.Set(codec.HeaderContentID, strconv.Itoa(frame.ID))
	msg.Header.Set(HeaderContentType, ContentType(frame))

	if err := s.pub.PublishMsg(msg); err != nil {
		return nil, fmt.Errorf("publish frame %d to %s: %w", frame.ID, s.subject, err)
	}
	return noopHandle(frame.ID), nil
}
