package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tweska/multio/core"
	"github.com/tweska/multio/sink/file"
)

func TestWriteAppendsPayloadBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	s, err := file.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	msg1 := core.NewMessage(core.Field, core.Peer{}, core.Peer{}, nil, core.NewOwnedBuffer([]byte("hello ")))
	msg2 := core.NewMessage(core.Field, core.Peer{}, core.Peer{}, nil, core.NewOwnedBuffer([]byte("world")))

	ctx := context.Background()
	if err := s.Write(ctx, msg1); err != nil {
		t.Fatalf("write 1: %v", err)
	}
	if err := s.Write(ctx, msg2); err != nil {
		t.Fatalf("write 2: %v", err)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", string(got))
	}
}

func TestOpenFailsOnUnwritableDirectory(t *testing.T) {
	if _, err := file.Open(filepath.Join(t.TempDir(), "missing-dir", "out.bin")); err == nil {
		t.Fatal("expected an error opening a file under a nonexistent directory")
	}
}
