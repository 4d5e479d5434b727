package action

import (
	"context"

	"github.com/tweska/multio/core"
)

// AddConst adds a constant elementwise to a Field whose paramId matches
// paramIs, preserving missing values under a bitmap, and relabels the
// result as mapToParam.
type AddConst struct {
	paramIs    int64
	mapToParam int64
	constant   float64
}

// DefaultAddConstant is the Kelvin/Celsius offset, used when a
// configuration omits the constant.
const DefaultAddConstant = 273.15

func NewAddConst(paramIs any, mapToParam int64, constant float64) (*AddConst, error) {
	p, err := parseParamIs(paramIs)
	if err != nil {
		return nil, err
	}
	return &AddConst{paramIs: p, mapToParam: mapToParam, constant: constant}, nil
}

func (a *AddConst) Execute(ctx context.Context, msg *core.Message, next Next) error {
	if msg.Tag() != core.Field {
		return next(ctx, msg)
	}
	pid, err := extractParamID(msg.Metadata())
	if err != nil {
		return err
	}
	if pid != a.paramIs {
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
		c := float32(a.constant)
		mv := float32(missing)
		for i, v := range data {
			if bitmap && v == mv {
				continue
			}
			data[i] = v + c
		}
	case core.Double:
		data := msg.Floats64()
		for i, v := range data {
			if bitmap && v == missing {
				continue
			}
			data[i] = v + a.constant
		}
	}

	out := msg.WithMetadata(msg.Metadata().Clone())
	out.ModifyMetadata().SetI64("paramId", a.mapToParam)
	return next(ctx, out)
}
