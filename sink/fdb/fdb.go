// Package fdb implements the FDB field-store sink over
// github.com/tidwall/buntdb, an embedded ordered KV store, keyed by the
// canonical FieldIdentity string.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package fdb

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/fname"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/sink"
)

func init() {
	sink.Registry.Register("fdb", func(cfg map[string]any) (sink.DataSink, error) {
		path, _ := cfg["path"].(string)
		if path == "" {
			var err error
			if path, err = defaultPath(); err != nil {
				return nil, cmn.NewConfigError("fdb sink: %v", err)
			}
		}
		return Open(path)
	})
}

// defaultPath returns ~/.config/multio/fdb.db, used when no explicit
// path is configured for the fdb sink.
func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, fname.HomeConfigsDir, fname.HomeMultio)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fname.FDBStore), nil
}

type Sink struct {
	db *buntdb.DB
}

func Open(path string) (*Sink, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, cmn.NewSinkFailure("fdb", err)
	}
	return &Sink{db: db}, nil
}

func (s *Sink) Write(ctx context.Context, msg *core.Message) error {
	ident, err := core.ExtractFieldIdentity(msg.Metadata())
	if err != nil {
		return cmn.NewSinkFailure("fdb", err)
	}
	key := ident.String()
	value := string(msg.Payload().Data())
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	if err != nil {
		return cmn.NewSinkFailure("fdb", err)
	}
	return nil
}

func (s *Sink) Flush(ctx context.Context) error {
	return s.db.Shrink()
}

func (s *Sink) Close() error {
	return s.db.Close()
}
