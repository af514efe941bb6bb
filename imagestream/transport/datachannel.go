package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is the number of undelivered messages a
// DataChannelSource buffers before it blocks the channel's read loop.
const DefaultQueueSize = 64

// ErrSourceClosed is returned by Next after Close.
var ErrSourceClosed = errors.New("transport: source closed")

// DataChannel abstracts webrtc.DataChannel for testability
type DataChannel interface {
	Close() error
	OnMessage(f func(msg webrtc.DataChannelMessage))
	OnClose(f func())
	OnError(f func(err error))
}

// dataChannelAdapter adapts *webrtc.DataChannel to DataChannel
type dataChannelAdapter struct {
	dc *webrtc.DataChannel
}

func (a *dataChannelAdapter) Close() error {
	return a.dc.Close()
}

func (a *dataChannelAdapter) OnMessage(f func(msg webrtc.DataChannelMessage)) {
	a.dc.OnMessage(f)
}

func (a *dataChannelAdapter) OnClose(f func()) {
	a.dc.OnClose(f)
}

func (a *dataChannelAdapter) OnError(f func(err error)) {
	a.dc.OnError(f)
}

// DataChannelSource delivers the messages of a WebRTC DataChannel as chunks.
//
// Messages are queued in arrival order. When the queue is full the OnMessage
// callback blocks, which stalls the channel until the decoder catches up.
// The channel closing ends the stream after every queued message has been
// delivered; a channel error ends it with that error.
type DataChannelSource struct {
	dc   DataChannel
	msgs chan []byte
	done chan struct{}
	log  logrus.FieldLogger

	mu      sync.Mutex
	endErr  error
	ended   bool
	closing bool
}

// NewDataChannelSource subscribes to dc. It must be called before the
// channel opens or early messages are lost.
func NewDataChannelSource(dc *webrtc.DataChannel, queueSize int, logger logrus.FieldLogger) *DataChannelSource {
	return newDataChannelSource(&dataChannelAdapter{dc: dc}, queueSize, logger)
}

func newDataChannelSource(dc DataChannel, queueSize int, logger logrus.FieldLogger) *DataChannelSource {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &DataChannelSource{
		dc:   dc,
		msgs: make(chan []byte, queueSize),
		done: make(chan struct{}),
		log:  logger.WithField("transport", "datachannel"),
	}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		data := make([]byte, len(msg.Data))
		copy(data, msg.Data)
		select {
		case s.msgs <- data:
		case <-s.done:
		}
	})
	dc.OnClose(func() {
		s.end(io.EOF)
	})
	dc.OnError(func(err error) {
		s.log.WithError(err).Warn("data channel error")
		s.end(fmt.Errorf("data channel error: %w", err))
	})
	return s
}

// Next returns the next queued message, waiting for one if necessary.
func (s *DataChannelSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	default:
	}

	select {
	case m := <-s.msgs:
		return m, nil
	case <-s.done:
		// Deliver what arrived before the channel ended.
		select {
		case m := <-s.msgs:
			return m, nil
		default:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return nil, s.endErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the source and closes the data channel.
func (s *DataChannelSource) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	s.end(ErrSourceClosed)
	return s.dc.Close()
}

func (s *DataChannelSource) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.endErr = err
	close(s.done)
}
