package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"time"
)

// sink buffers formatted lines for every output and flushes them on a timer.
type sink struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	closers []io.Closer
	err     error

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newSink(outputs []io.Writer, closers []io.Closer, every time.Duration) *sink {
	s := &sink{
		buf:     bufio.NewWriterSize(io.MultiWriter(outputs...), 64*1024),
		closers: closers,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if every <= 0 {
		every = 250 * time.Millisecond
	}
	go s.flushLoop(every)
	return s
}

func (s *sink) flushLoop(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			_ = s.Flush()
		}
	}
}

// Write appends one line. The first write error sticks and is returned
// from every later call.
func (s *sink) Write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, err := s.buf.Write(line); err != nil {
		s.err = err
	}
	return s.err
}

func (s *sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.err = s.buf.Flush()
	return s.err
}

// Close stops the flusher, drains the buffer and closes owned outputs.
func (s *sink) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		<-s.done
		errs := []error{s.Flush()}
		for _, c := range s.closers {
			errs = append(errs, c.Close())
		}
		err = errors.Join(errs...)
	})
	return err
}
