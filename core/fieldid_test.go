package core_test

import (
	"testing"

	"github.com/tweska/multio/core"
)

func buildIdentityMetadata(param, level, step, ensemble int64) *core.Metadata {
	md := core.NewMetadata()
	md.SetI64("param", param)
	md.SetI64("level", level)
	md.SetI64("step", step)
	if ensemble != 0 {
		md.SetI64("ensemble", ensemble)
	}
	return md
}

func TestExtractFieldIdentityDefaultsEnsembleToZero(t *testing.T) {
	md := buildIdentityMetadata(1, 2, 3, 0)
	id, err := core.ExtractFieldIdentity(md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Ensemble != 0 {
		t.Fatalf("expected Ensemble=0, got %d", id.Ensemble)
	}
}

func TestExtractFieldIdentityMissingKeyFails(t *testing.T) {
	md := core.NewMetadata()
	md.SetI64("level", 1)
	if _, err := core.ExtractFieldIdentity(md); err == nil {
		t.Fatal("expected error for missing param")
	}
}

func TestShardIndexStableForSameIdentity(t *testing.T) {
	id := core.FieldIdentity{Param: 130, Level: 850, Step: 12, Ensemble: 1}
	first := id.ShardIndex(8)
	for i := 0; i < 100; i++ {
		if got := id.ShardIndex(8); got != first {
			t.Fatalf("ShardIndex not stable across calls: first=%d got=%d", first, got)
		}
	}
}

func TestShardIndexIdenticalForEqualIdentities(t *testing.T) {
	a := core.FieldIdentity{Param: 130, Level: 850, Step: 12, Ensemble: 1}
	b := core.FieldIdentity{Param: 130, Level: 850, Step: 12, Ensemble: 1}
	if a.ShardIndex(16) != b.ShardIndex(16) {
		t.Fatal("equal identities routed to different shards")
	}
}

func TestShardIndexWithinBounds(t *testing.T) {
	ids := []core.FieldIdentity{
		{Param: 130, Level: 0, Step: 0},
		{Param: 131, Level: 500, Step: 6},
		{Param: 132, Level: 1000, Step: 240, Ensemble: 9},
	}
	const nServers = 5
	for _, id := range ids {
		idx := id.ShardIndex(nServers)
		if idx < 0 || idx >= nServers {
			t.Fatalf("shard index %d out of range [0,%d) for %s", idx, nServers, id)
		}
	}
}

func TestShardIndexZeroServersIsZero(t *testing.T) {
	id := core.FieldIdentity{Param: 1, Level: 1, Step: 1}
	if id.ShardIndex(0) != 0 {
		t.Fatal("expected 0 for nServers<=0")
	}
}
