package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher implements MsgPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishMsg(msg *nats.Msg) error {
	args := m.Called(msg)
	return args.Error(0)
}

func TestNATSSink(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishMsg", mock.MatchedBy(func(msg *nats.Msg) bool {
		return msg.Subject == "articles.42.images"
	})).Return(nil).Once()

	s := NewNATSSink(pub, "articles.42.images")

	h, err := s.Put(context.Background(), frame(6, pngBytes))
	require.NoError(t, err)
	assert.Equal(t, 6, h.ID())
	assert.NoError(t, h.Release())

	pub.AssertExpectations(t)
	msg := pub.Calls[0].Arguments.Get(0).(*nats.Msg)
	assert.Equal(t, pngBytes, msg.Data)
	assert.Equal(t, "6", msg.Header.Get("Content-ID"))
	assert.Equal(t, "image/png", msg.Header.Get("Content-Type"))
}

func TestNATSSinkPublishError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishMsg", mock.Anything).Return(nats.ErrConnectionClosed)

	s := NewNATSSink(pub, "images")

	_, err := s.Put(context.Background(), frame(1, jpegBytes))
	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
	pub.AssertNumberOfCalls(t, "PublishMsg", 1)
}

func TestNATSSinkCancelled(t *testing.T) {
	pub := new(MockPublisher)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNATSSink(pub, "images").Put(ctx, frame(1, jpegBytes))
	assert.ErrorIs(t, err, context.Canceled)
	pub.AssertNotCalled(t, "PublishMsg", mock.Anything)
}
