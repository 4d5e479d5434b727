//go:build azure

// Package azure implements sink.DataSink as a remote object-store sink
// via Azure/azure-sdk-for-go/sdk/storage/azblob, for archiving encoded
// fields to blob storage.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package azure

import (
	"context"
	"errors"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/sink"
)

const (
	azDefaultProto = "https://"
	azHost         = ".blob.core.windows.net"

	azAccNameEnvVar = "AZURE_STORAGE_ACCOUNT"
	azAccKeyEnvVar  = "AZURE_STORAGE_KEY"
)

func init() {
	sink.Registry.Register("azure", func(cfg map[string]any) (sink.DataSink, error) {
		container, _ := cfg["container"].(string)
		prefix, _ := cfg["prefix"].(string)
		if container == "" {
			return nil, cmn.NewConfigError("azure sink: missing %q", "container")
		}
		return Open(container, prefix)
	})
}

type Sink struct {
	client    *azblob.Client
	container string
	prefix    string
}

func endpoint() string {
	return azDefaultProto + os.Getenv(azAccNameEnvVar) + azHost
}

// Open constructs a client from AZURE_STORAGE_ACCOUNT/AZURE_STORAGE_KEY,
// scoped to one container and a fixed key prefix (the sink does not
// model Azure's bucket/object namespace beyond that).
func Open(container, prefix string) (*Sink, error) {
	accName, accKey := os.Getenv(azAccNameEnvVar), os.Getenv(azAccKeyEnvVar)
	creds, err := azblob.NewSharedKeyCredential(accName, accKey)
	if err != nil {
		return nil, cmn.NewSinkFailure("azure", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint(), creds, nil)
	if err != nil {
		return nil, cmn.NewSinkFailure("azure", err)
	}
	return &Sink{client: client, container: container, prefix: prefix}, nil
}

func (s *Sink) Write(ctx context.Context, msg *core.Message) error {
	ident, err := core.ExtractFieldIdentity(msg.Metadata())
	if err != nil {
		return cmn.NewSinkFailure("azure", err)
	}
	key := s.prefix + ident.String()
	_, err = s.client.UploadBuffer(ctx, s.container, key, msg.Payload().Data(), nil)
	if err != nil {
		return cmn.NewSinkFailure("azure", translateError(err))
	}
	return nil
}

func (s *Sink) Flush(ctx context.Context) error { return nil }

// translateError unwraps an azcore.ResponseError, surfacing the
// blob-level error code instead of an opaque transport error.
func translateError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return errors.New("azure-error[" + respErr.ErrorCode + "]: " + respErr.Error())
	}
	return err
}
