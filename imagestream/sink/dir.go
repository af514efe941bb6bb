package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// DirSink writes each frame to its own file in a directory.
//
// Files are named <prefix>-<seq>-<id><ext>, where seq counts frames put
// into this sink and ext comes from the detected image type.
type DirSink struct {
	dir    string
	prefix string
	seq    atomic.Int64
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir, prefix string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	if prefix == "" {
		prefix = "image"
	}
	return &DirSink{dir: dir, prefix: prefix}, nil
}

// Put writes the payload and returns a *File.
func (d *DirSink) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := d.seq.Add(1)
	name := fmt.Sprintf("%s-%04d-%d%s", d.prefix, seq, frame.ID, Extension(frame))
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, frame.Payload, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	return &File{id: frame.ID, path: path}, nil
}

// File is an image written by DirSink. Releasing it removes the file.
type File struct {
	id   int
	path string
	once sync.Once
	err  error
}

// ID returns the frame id.
func (f *File) ID() int { return f.id }

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Release removes the file.
func (f *File) Release() error {
	f.once.Do(func() {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			f.err = err
		}
	})
	return f.err
}
