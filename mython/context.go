package mython

import (
	"bytes"
	"io"
)

// Context supplies the execution environment a running program may touch.
// The interpreter only ever asks it for the output sink.
type Context interface {
	Output() io.Writer
}

// WriterContext adapts any io.Writer into a Context.
type WriterContext struct {
	w io.Writer
}

func NewWriterContext(w io.Writer) *WriterContext {
	return &WriterContext{w: w}
}

func (c *WriterContext) Output() io.Writer {
	return c.w
}

// BufferedContext captures program output in memory, for tests and the REPL.
type BufferedContext struct {
	buf bytes.Buffer
}

func (c *BufferedContext) Output() io.Writer {
	return &c.buf
}

// String returns everything the program has printed so far.
func (c *BufferedContext) String() string {
	return c.buf.String()
}

// Reset discards the captured output.
func (c *BufferedContext) Reset() {
	c.buf.Reset()
}
