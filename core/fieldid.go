package core

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/tweska/multio/cmn"
)

// FieldIdentity is the correlation and shard key derived from a Field
// message's metadata: (param, level, step, ensemble).
type FieldIdentity struct {
	Param    int64
	Level    int64
	Step     int64
	Ensemble int64
}

// ExtractFieldIdentity reads the four identity components from metadata.
// ensemble defaults to 0 when absent (not every configuration runs an
// ensemble).
func ExtractFieldIdentity(md *Metadata) (FieldIdentity, error) {
	param, err := md.I64("param")
	if err != nil {
		return FieldIdentity{}, cmn.NewMetadataMissing("param")
	}
	level, err := md.I64("level")
	if err != nil {
		return FieldIdentity{}, cmn.NewMetadataMissing("level")
	}
	step, err := md.I64("step")
	if err != nil {
		return FieldIdentity{}, cmn.NewMetadataMissing("step")
	}
	ensemble, _ := md.OptI64("ensemble")
	return FieldIdentity{Param: param, Level: level, Step: step, Ensemble: ensemble}, nil
}

func (f FieldIdentity) String() string {
	return fmt.Sprintf("param=%d,level=%d,step=%d,ensemble=%d", f.Param, f.Level, f.Step, f.Ensemble)
}

// hash runs OneOfOne/xxhash over the identity's canonical string form;
// it backs the client's shard routing (ShardIndex). Aggregate correlates
// by the FieldIdentity value itself, not by this hash.
func (f FieldIdentity) hash() uint64 {
	return xxhash.Checksum64S([]byte(f.String()), 0)
}

// ShardIndex returns hash(identity) mod nServers - stable across runs for
// a given identity and nServers, and identical for any two messages that
// share a FieldIdentity.
func (f FieldIdentity) ShardIndex(nServers int) int {
	if nServers <= 0 {
		return 0
	}
	return int(f.hash() % uint64(nServers))
}
