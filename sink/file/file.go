// Package file implements sink.DataSink as a plain append-only os.File
// writer.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package file

import (
	"context"
	"os"
	"sync"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/cmn/nlog"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/sink"
)

func init() {
	sink.Registry.Register("file", func(cfg map[string]any) (sink.DataSink, error) {
		path, _ := cfg["path"].(string)
		if path == "" {
			return nil, cmn.NewConfigError("file sink: missing %q", "path")
		}
		return Open(path)
	})
}

type Sink struct {
	mu sync.Mutex
	f  *os.File
}

func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, cmn.NewSinkFailure("file", err)
	}
	return &Sink{f: f}, nil
}

func (s *Sink) Write(ctx context.Context, msg *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(msg.Payload().Data()); err != nil {
		if cos.IsErrOOS(err) {
			nlog.Errorf("file sink %s: out of space", s.f.Name())
		}
		return cmn.NewSinkFailure("file", err)
	}
	return nil
}

func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Sync()
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
