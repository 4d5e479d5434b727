package action

import (
	"strconv"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
)

// extractParamID reads the "paramId" metadata key, accepting either its
// string or i64 representation and coercing to int64 for comparison
// against a stage's configured paramIs.
func extractParamID(md *core.Metadata) (int64, error) {
	if v, ok := md.OptI64("paramId"); ok {
		return v, nil
	}
	if s, ok := md.OptString("paramId"); ok {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, cmn.NewFieldError("paramId %q is not numeric", s)
		}
		return v, nil
	}
	return 0, cmn.NewMetadataMissing("paramId")
}

// parseParamIs coerces a stage's configured paramIs (string or i64 in raw
// config) to int64 once, at construction time.
func parseParamIs(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, cmn.NewConfigError("paramIs: unsupported type %T", v)
	}
}
