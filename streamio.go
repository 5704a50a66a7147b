// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

///////////////////////////////////////////////////////////////////////////////

func filenameWantsZstd(filename string, forced bool) bool {
	return forced || strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd")
}

// zstdWriteCloser adapts a *zstd.Encoder plus the *os.File beneath it
// into a single io.WriteCloser, so a Writer's own single closer slot can
// finalize the zstd frame and then close the file in that order. File is
// nil when the destination is stdout, which Close must leave open.
type zstdWriteCloser struct {
	enc  *zstd.Encoder
	file *os.File
}

func (c *zstdWriteCloser) Write(p []byte) (int, error) { return c.enc.Write(p) }
func (c *zstdWriteCloser) Flush() error                { return c.enc.Flush() }

func (c *zstdWriteCloser) Close() error {
	if err := c.enc.Close(); err != nil {
		return err
	}
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// OpenWriter opens filename for writing (os.Stdout if filename is "-")
// and returns a ready-to-use tagbin Writer, zstd-compressing the stream
// if useZstd is true or filename ends in ".zst"/".zstd". Deferring the
// returned Writer's own Close flushes any buffering, finalizes the zstd
// frame, and closes the file, in that order.
//
// dbn-go's compressed_io.go hands callers a bare io.Writer and a
// separate closing func, leaving every caller to wrap that io.Writer in
// its own Metadata.Write (or similar) afterward. Every tagbin stream
// needs a Writer regardless of transport -- it owns the stream's key and
// struct tables -- so this folds that construction in directly instead
// of making each cmd/tagbin subcommand repeat the wrap-then-construct
// dance.
func OpenWriter(filename string, useZstd bool) (*Writer, error) {
	var file *os.File
	var sink io.Writer = os.Stdout
	if filename != "-" {
		f, err := os.Create(filename)
		if err != nil {
			return nil, err
		}
		file, sink = f, f
	}

	leaveOpen := file == nil
	if filenameWantsZstd(filename, useZstd) {
		enc, err := zstd.NewWriter(sink)
		if err != nil {
			if file != nil {
				file.Close()
			}
			return nil, err
		}
		sink = &zstdWriteCloser{enc: enc, file: file}
		leaveOpen = false // the wrapper itself already guards stdout from being closed
	}

	return NewWriter(sink, leaveOpen), nil
}

///////////////////////////////////////////////////////////////////////////////

// zstdReadCloser adapts a *zstd.Decoder (whose Close takes no error,
// unlike Encoder) plus the *os.File beneath it into a single
// io.ReadCloser. File is nil when the source is stdin.
type zstdReadCloser struct {
	dec  *zstd.Decoder
	file *os.File
}

func (c *zstdReadCloser) Read(p []byte) (int, error) { return c.dec.Read(p) }

func (c *zstdReadCloser) Close() error {
	c.dec.Close()
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// OpenReader opens filename for reading (os.Stdin if filename is "-")
// and returns a ready-to-use tagbin Reader, zstd-decompressing the
// stream if useZstd is true or filename ends in ".zst"/".zstd". The
// Reader's own Close (deferred by the caller) releases the zstd decoder
// and closes the file, in that order.
func OpenReader(filename string, useZstd bool) (*Reader, error) {
	var file *os.File
	var src io.Reader = os.Stdin
	if filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		file, src = f, f
	}

	leaveOpen := file == nil
	if filenameWantsZstd(filename, useZstd) {
		dec, err := zstd.NewReader(src)
		if err != nil {
			if file != nil {
				file.Close()
			}
			return nil, err
		}
		src = &zstdReadCloser{dec: dec, file: file}
		leaveOpen = false
	}

	return NewReader(src, leaveOpen), nil
}
