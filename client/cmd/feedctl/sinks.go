package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
	"github.com/yhonda-ohishi/articlefeed/imagestream/sink"
)

// openSinks opens every sink enabled in the configuration, followed by
// extra. With nothing enabled frames are kept in memory. The returned
// function closes whatever was opened.
func (a *app) openSinks(extra ...sink.Sink) (sink.Sink, func(), error) {
	var (
		sinks   []sink.Sink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				a.log.WithError(err).Warn("failed to close sink")
			}
		}
	}
	fail := func(err error) (sink.Sink, func(), error) {
		closeAll()
		return nil, nil, err
	}

	sc := a.cfg.Sinks
	if sc.Dir.Enabled {
		d, err := sink.NewDirSink(sc.Dir.Path, sc.Dir.Prefix)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, d)
	}
	if sc.Journal.Enabled {
		j, err := sink.OpenJournal(sc.Journal.Path)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, j)
		closers = append(closers, j.Close)
	}
	if sc.NATS.Enabled {
		nc, err := nats.Connect(sc.NATS.URL, nats.Name("feedctl"))
		if err != nil {
			return fail(fmt.Errorf("connect to nats %s: %w", sc.NATS.URL, err))
		}
		sinks = append(sinks, sink.NewNATSSink(nc, sc.NATS.Subject))
		closers = append(closers, func() error {
			defer nc.Close()
			return nc.Flush()
		})
	}
	if sc.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		sinks = append(sinks, sink.NewRedisSink(rdb, sc.Redis.Prefix, sc.Redis.TTL))
		closers = append(closers, rdb.Close)
	}
	sinks = append(sinks, extra...)

	a.log.WithFields(logrus.Fields{
		"dir":     sc.Dir.Enabled,
		"journal": sc.Journal.Enabled,
		"nats":    sc.NATS.Enabled,
		"redis":   sc.Redis.Enabled,
		"extra":   len(extra),
	}).Debug("sinks opened")

	switch len(sinks) {
	case 0:
		return sink.NewMemorySink(), closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	default:
		return sink.Tee(sinks...), closeAll, nil
	}
}

// reportFrames prints one line per stored frame.
func reportFrames(w io.Writer, next sink.Sink) sink.Sink {
	return sink.Func(func(ctx context.Context, frame codec.Frame) (sink.Handle, error) {
		h, err := next.Put(ctx, frame)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "image %d: %d bytes, %s\n", frame.ID, len(frame.Payload), sink.ContentType(frame))
		return h, nil
	})
}

// summarize prints the decoder counters and reports how the stream ended.
func summarize(w io.Writer, shown int, stats codec.Stats, err error) error {
	fmt.Fprintf(w, "%d images shown, %d frames decoded (%d bytes in %d chunks)\n",
		shown, stats.Frames, stats.PayloadBytes, stats.Chunks)
	if stats.MissingFrameIDs > 0 || stats.MalformedHeaderLines > 0 {
		fmt.Fprintf(w, "warnings: %d frames without id, %d malformed header lines\n",
			stats.MissingFrameIDs, stats.MalformedHeaderLines)
	}
	if errors.Is(err, codec.ErrTruncated) {
		return fmt.Errorf("stream ended early, showing what arrived: %w", err)
	}
	return err
}
