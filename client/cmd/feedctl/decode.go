package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
	"github.com/yhonda-ohishi/articlefeed/imagestream/sink"
	"github.com/yhonda-ohishi/articlefeed/imagestream/transport"
)

// chunkSource is a codec.ChunkSource that owns a connection or file.
type chunkSource interface {
	codec.ChunkSource
	io.Closer
}

type decodeOptions struct {
	wsURL     string
	split     int
	boundary  string
	maxFrames int
	outDir    string
}

func (a *app) decodeCmd() *cobra.Command {
	var opts decodeOptions

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a captured image stream",
		Long: `Decode an image stream from a file, standard input ("-") or a WebSocket
and store the images in the configured sinks.

Examples:
  feedctl decode capture.bin --out images/
  feedctl decode capture.bin --split 7
  feedctl decode --ws ws://localhost:9000/stream`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.boundary == "" {
				opts.boundary = a.cfg.Stream.Boundary
			}
			if opts.maxFrames == 0 {
				opts.maxFrames = a.cfg.Stream.MaxFrames
			}
			return a.runDecode(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.wsURL, "ws", "", "read the stream from a WebSocket URL")
	cmd.Flags().IntVar(&opts.split, "split", 0, "feed the file to the decoder in chunks of this many bytes")
	cmd.Flags().StringVar(&opts.boundary, "boundary", "", "boundary marker (default stream.boundary)")
	cmd.Flags().IntVarP(&opts.maxFrames, "max", "n", 0, "stop after this many frames (default stream.max_frames)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "also write images to this directory")
	return cmd
}

func (a *app) runDecode(ctx context.Context, cmd *cobra.Command, args []string, opts decodeOptions) error {
	src, err := a.openSource(ctx, cmd, args, opts)
	if err != nil {
		return err
	}
	dec, err := codec.NewDecoder(src, codec.Options{
		Boundary:  []byte(opts.boundary),
		MaxFrames: opts.maxFrames,
		Logger:    a.log,
	})
	if err != nil {
		src.Close()
		return err
	}
	defer dec.Close()

	var extra []sink.Sink
	if opts.outDir != "" {
		d, err := sink.NewDirSink(opts.outDir, "frame")
		if err != nil {
			return err
		}
		extra = append(extra, d)
	}
	s, closeSinks, err := a.openSinks(extra...)
	if err != nil {
		return err
	}
	defer closeSinks()

	out := cmd.OutOrStdout()
	gallery := sink.NewGallery(reportFrames(out, s), a.log)
	_, err = sink.Drain(ctx, dec, gallery)
	return summarize(out, gallery.Len(), dec.Stats(), err)
}

func (a *app) openSource(ctx context.Context, cmd *cobra.Command, args []string, opts decodeOptions) (chunkSource, error) {
	if opts.wsURL != "" {
		if len(args) > 0 {
			return nil, errors.New("give either a file or --ws, not both")
		}
		return transport.DialWebSocket(ctx, opts.wsURL, nil, a.log)
	}
	if len(args) == 0 {
		return nil, errors.New("a file, \"-\" or --ws is required")
	}

	var r io.ReadCloser
	if args[0] == "-" {
		r = io.NopCloser(cmd.InOrStdin())
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		r = f
	}

	if opts.split <= 0 {
		return transport.NewReaderSource(r, a.cfg.Stream.ChunkSize), nil
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return transport.NewStaticSource(transport.SplitEvery(data, opts.split)...), nil
}
