package action

import (
	"context"
	"sync"

	"github.com/tweska/multio/core"
)

// Operation selects the reduction Statistics applies within a window.
type Operation int

const (
	OpMean Operation = iota
	OpMin
	OpMax
	OpAccumulate
)

// Period selects how PeriodUpdater computes a window's end from its
// start.
type Period int

const (
	PeriodStep Period = iota
	PeriodHour
	PeriodDay
	PeriodMonth
)

// PeriodUpdater advances a window boundary. Time is the i64 value of the
// metadata key the Statistics stage is configured with ("step" by
// default); Step period advances by a configured step stride.
type PeriodUpdater struct {
	period     Period
	stepStride int64
}

func NewPeriodUpdater(period Period, stepStride int64) *PeriodUpdater {
	if stepStride <= 0 {
		stepStride = 1
	}
	return &PeriodUpdater{period: period, stepStride: stepStride}
}

// WindowEnd returns the end boundary of the window that start falls into.
func (p *PeriodUpdater) WindowEnd(start int64) int64 {
	switch p.period {
	case PeriodHour:
		return start - start%3600 + 3600
	case PeriodDay:
		return start - start%86400 + 86400
	case PeriodMonth:
		return start - start%(30*86400) + 30*86400
	default: // PeriodStep
		return start + p.stepStride
	}
}

// Statistics implements the temporal reduction stage: on each incoming
// field, either extend the current window's accumulator or, when the
// field's time crosses the window end, emit the reduction and open a new
// window.
type Statistics struct {
	op      Operation
	updater *PeriodUpdater
	timeKey string // metadata key carrying the field's time coordinate

	mu    sync.Mutex
	byKey map[core.FieldIdentity]*window
}

type window struct {
	prec        core.Precision
	startWindow int64
	endWindow   int64
	count       int64
	acc64       []float64
	template    *core.Message
}

func NewStatistics(op Operation, updater *PeriodUpdater, timeKey string) *Statistics {
	if timeKey == "" {
		timeKey = "step"
	}
	return &Statistics{op: op, updater: updater, timeKey: timeKey, byKey: make(map[core.FieldIdentity]*window)}
}

func (s *Statistics) Execute(ctx context.Context, msg *core.Message, next Next) error {
	if msg.Tag() != core.Field {
		return next(ctx, msg)
	}
	if err := msg.ValidateField(); err != nil {
		return err
	}
	ident, err := core.ExtractFieldIdentity(msg.Metadata())
	if err != nil {
		return err
	}
	// a window spans successive steps of one field, so the step is not
	// part of the window key
	ident.Step = 0
	t, err := msg.Metadata().I64(s.timeKey)
	if err != nil {
		return err
	}
	prec, err := msg.Precision()
	if err != nil {
		return err
	}

	var values []float64
	switch prec {
	case core.Single:
		for _, v := range msg.Floats32() {
			values = append(values, float64(v))
		}
	case core.Double:
		values = append(values, msg.Floats64()...)
	}

	s.mu.Lock()
	w, ok := s.byKey[ident]
	if !ok {
		w = &window{prec: prec, startWindow: t, endWindow: s.updater.WindowEnd(t), acc64: append([]float64(nil), values...), count: 1, template: msg}
		s.byKey[ident] = w
		s.mu.Unlock()
		return nil
	}

	if t >= w.endWindow {
		emit := w
		delete(s.byKey, ident)
		next2 := &window{prec: prec, startWindow: t, endWindow: s.updater.WindowEnd(t), acc64: append([]float64(nil), values...), count: 1, template: msg}
		s.byKey[ident] = next2
		s.mu.Unlock()
		return s.emit(ctx, emit, next)
	}

	s.reduce(w, values)
	w.count++
	s.mu.Unlock()
	return nil
}

func (s *Statistics) reduce(w *window, values []float64) {
	for i, v := range values {
		if i >= len(w.acc64) {
			w.acc64 = append(w.acc64, v)
			continue
		}
		switch s.op {
		case OpMin:
			if v < w.acc64[i] {
				w.acc64[i] = v
			}
		case OpMax:
			if v > w.acc64[i] {
				w.acc64[i] = v
			}
		case OpAccumulate:
			w.acc64[i] += v
		case OpMean:
			w.acc64[i] += v
		}
	}
}

func (s *Statistics) emit(ctx context.Context, w *window, next Next) error {
	out := append([]float64(nil), w.acc64...)
	if s.op == OpMean && w.count > 0 {
		for i := range out {
			out[i] /= float64(w.count)
		}
	}

	md := w.template.Metadata().Clone()
	md.SetI64("startWindow", w.startWindow)
	md.SetI64("endWindow", w.endWindow)

	var payload *core.Buffer
	switch w.prec {
	case core.Single:
		f32 := make([]float32, len(out))
		for i, v := range out {
			f32[i] = float32(v)
		}
		payload = core.NewOwnedBuffer(core.Float32ToBytes(f32))
	case core.Double:
		payload = core.NewOwnedBuffer(core.Float64ToBytes(out))
	}
	outMsg := core.NewMessage(core.Field, w.template.Source(), w.template.Destination(), md, payload)
	return next(ctx, outMsg)
}
