package action

import (
	"context"

	"github.com/tweska/multio/core"
)

// Scale multiplies a Field's payload elementwise by factor when its
// paramId matches paramIs, analogous to AddConst.
type Scale struct {
	paramIs    int64
	mapToParam int64
	factor     float64
}

func NewScale(paramIs any, mapToParam int64, factor float64) (*Scale, error) {
	p, err := parseParamIs(paramIs)
	if err != nil {
		return nil, err
	}
	return &Scale{paramIs: p, mapToParam: mapToParam, factor: factor}, nil
}

func (s *Scale) Execute(ctx context.Context, msg *core.Message, next Next) error {
	if msg.Tag() != core.Field {
		return next(ctx, msg)
	}
	pid, err := extractParamID(msg.Metadata())
	if err != nil {
		return err
	}
	if pid != s.paramIs {
		return next(ctx, msg)
	}
	if err := msg.ValidateField(); err != nil {
		return err
	}

	bitmap, _ := msg.Metadata().OptBool("bitmapPresent")
	missing, _ := msg.Metadata().OptF64("missingValue")

	msg.Acquire()
	prec, err := msg.Precision()
	if err != nil {
		return err
	}
	switch prec {
	case core.Single:
		data := msg.Floats32()
		f := float32(s.factor)
		mv := float32(missing)
		for i, v := range data {
			if bitmap && v == mv {
				continue
			}
			data[i] = v * f
		}
	case core.Double:
		data := msg.Floats64()
		for i, v := range data {
			if bitmap && v == missing {
				continue
			}
			data[i] = v * s.factor
		}
	}

	out := msg.WithMetadata(msg.Metadata().Clone())
	out.ModifyMetadata().SetI64("paramId", s.mapToParam)
	return next(ctx, out)
}
