package action

import (
	"context"

	"github.com/tweska/multio/core"
)

// Codec is the external GRIB encoder Encode delegates to; opaque to the
// rest of the pipeline. multio's original links libeccodes;
// this repo defines the seam and a pass-through default so the pipeline
// is exercisable without that external dependency.
type Codec interface {
	EncodeGRIB(msg *core.Message) ([]byte, error)
}

// IdentityCodec re-frames the payload as "grib" bytes unchanged - a
// stand-in for the real GRIB codec, useful for tests and for
// configurations that only need the format tag flipped.
type IdentityCodec struct{}

func (IdentityCodec) EncodeGRIB(msg *core.Message) ([]byte, error) {
	return append([]byte(nil), msg.Payload().Data()...), nil
}

// Encode transforms a Field into GRIB-encoded bytes via codec, tagging
// the result with format=grib. Opaque to downstream stages:
// they see only the resulting bytes and the format tag.
type Encode struct {
	codec Codec
}

func NewEncode(codec Codec) *Encode {
	if codec == nil {
		codec = IdentityCodec{}
	}
	return &Encode{codec: codec}
}

func (e *Encode) Execute(ctx context.Context, msg *core.Message, next Next) error {
	if msg.Tag() != core.Field {
		return next(ctx, msg)
	}
	encoded, err := e.codec.EncodeGRIB(msg)
	if err != nil {
		return err
	}
	md := msg.Metadata().Clone()
	md.SetString("format", "grib")
	out := core.NewMessage(msg.Tag(), msg.Source(), msg.Destination(), md, core.NewOwnedBuffer(encoded))
	return next(ctx, out)
}
