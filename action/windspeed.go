package action

import (
	"context"
	"math"
	"sync"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
)

// Windspeed correlates u/v wind components sharing a step and emits the
// scalar speed hypot(u, v). The cache is keyed by step alone: the
// configured uParamId/vParamId already disambiguate which of the two
// slots a given step's cache entry holds.
type Windspeed struct {
	uParamID, vParamID, wParamID int64

	mu    sync.Mutex
	cache map[int64]*pending
}

type pending struct {
	msg  *core.Message
	isU  bool
	prec core.Precision
}

func NewWindspeed(uParamID, vParamID, wParamID int64) *Windspeed {
	return &Windspeed{
		uParamID: uParamID,
		vParamID: vParamID,
		wParamID: wParamID,
		cache:    make(map[int64]*pending),
	}
}

func (w *Windspeed) Execute(ctx context.Context, msg *core.Message, next Next) error {
	switch msg.Tag() {
	case core.Flush:
		w.mu.Lock()
		w.cache = make(map[int64]*pending)
		w.mu.Unlock()
		return next(ctx, msg)
	case core.Field:
		return w.executeField(ctx, msg, next)
	default:
		return next(ctx, msg)
	}
}

func (w *Windspeed) executeField(ctx context.Context, msg *core.Message, next Next) error {
	pid, err := extractParamID(msg.Metadata())
	if err != nil {
		return err
	}
	isU := pid == w.uParamID
	isV := pid == w.vParamID
	if !isU && !isV {
		return next(ctx, msg)
	}
	if err := msg.ValidateField(); err != nil {
		return err
	}
	step, err := msg.Metadata().I64("step")
	if err != nil {
		return err
	}
	prec, err := msg.Precision()
	if err != nil {
		return err
	}

	w.mu.Lock()
	partner, ok := w.cache[step]
	if ok {
		delete(w.cache, step)
	} else {
		w.cache[step] = &pending{msg: msg, isU: isU, prec: prec}
	}
	w.mu.Unlock()

	if !ok {
		return nil
	}
	if partner.isU == isU {
		return cmn.NewFieldError("windspeed: two %s components for step %d", sideName(isU), step)
	}
	if partner.prec != prec {
		return cmn.NewFieldError("windspeed: precision mismatch between u/v for step %d", step)
	}

	var uMsg, vMsg *core.Message
	if isU {
		uMsg, vMsg = msg, partner.msg
	} else {
		uMsg, vMsg = partner.msg, msg
	}

	uBitmap, _ := uMsg.Metadata().OptBool("bitmapPresent")
	vBitmap, _ := vMsg.Metadata().OptBool("bitmapPresent")
	outBitmap := uBitmap || vBitmap
	// the sentinel comes from whichever input actually carries the bitmap
	missingValue, ok := uMsg.Metadata().OptF64("missingValue")
	if !ok || (!uBitmap && vBitmap) {
		if mv, vok := vMsg.Metadata().OptF64("missingValue"); vok {
			missingValue = mv
		}
	}

	md := uMsg.Metadata().Clone()
	md.SetI64("paramId", w.wParamID)
	md.Delete("name")
	md.Delete("shortName")
	md.SetBool("bitmapPresent", outBitmap)
	if outBitmap {
		md.SetF64("missingValue", missingValue)
	}

	var payload *core.Buffer
	switch prec {
	case core.Single:
		u, v := uMsg.Floats32(), vMsg.Floats32()
		out := make([]float32, len(u))
		mv := float32(missingValue)
		for i := range out {
			if outBitmap && (u[i] == mv || v[i] == mv) {
				out[i] = mv
				continue
			}
			out[i] = float32(math.Hypot(float64(u[i]), float64(v[i])))
		}
		payload = core.NewOwnedBuffer(core.Float32ToBytes(out))
	case core.Double:
		u, v := uMsg.Floats64(), vMsg.Floats64()
		out := make([]float64, len(u))
		for i := range out {
			if outBitmap && (u[i] == missingValue || v[i] == missingValue) {
				out[i] = missingValue
				continue
			}
			out[i] = math.Hypot(u[i], v[i])
		}
		payload = core.NewOwnedBuffer(core.Float64ToBytes(out))
	}

	outMsg := core.NewMessage(core.Field, msg.Source(), msg.Destination(), md, payload)
	return next(ctx, outMsg)
}

func sideName(isU bool) string {
	if isU {
		return "u"
	}
	return "v"
}
