package action

import (
	"github.com/tweska/multio/internal/registry"
)

// Registry is the name-keyed Stage factory used to build a Pipeline from
// configuration.
var Registry = registry.NewFactory[Stage]()

func init() {
	Registry.Register("select", func(cfg map[string]any) (Stage, error) {
		cats, _ := cfg["categories"].([]string)
		return NewSelect(cats), nil
	})
	Registry.Register("addConst", func(cfg map[string]any) (Stage, error) {
		constant := DefaultAddConstant
		if c, ok := cfg["constant"].(float64); ok {
			constant = c
		}
		mapTo, _ := cfg["mapToParam"].(int64)
		return NewAddConst(cfg["paramIs"], mapTo, constant)
	})
	Registry.Register("scale", func(cfg map[string]any) (Stage, error) {
		factor, _ := cfg["factor"].(float64)
		mapTo, _ := cfg["mapToParam"].(int64)
		return NewScale(cfg["paramIs"], mapTo, factor)
	})
	Registry.Register("windspeed", func(cfg map[string]any) (Stage, error) {
		u, _ := cfg["uParamId"].(int64)
		v, _ := cfg["vParamId"].(int64)
		w, _ := cfg["wParamId"].(int64)
		return NewWindspeed(u, v, w), nil
	})
	Registry.Register("encode", func(cfg map[string]any) (Stage, error) {
		codec, _ := cfg["codec"].(Codec)
		return NewEncode(codec), nil
	})
	Registry.Register("aggregate", func(cfg map[string]any) (Stage, error) {
		return NewAggregate(nil), nil
	})
	Registry.Register("statistics", func(cfg map[string]any) (Stage, error) {
		op, _ := cfg["operation"].(Operation)
		period, _ := cfg["period"].(Period)
		stride, _ := cfg["stepStride"].(int64)
		timeKey, _ := cfg["timeKey"].(string)
		return NewStatistics(op, NewPeriodUpdater(period, stride), timeKey), nil
	})
	Registry.Register("sink", func(cfg map[string]any) (Stage, error) {
		target, _ := cfg["target"].(DataSink)
		return NewSink(target), nil
	})
}
