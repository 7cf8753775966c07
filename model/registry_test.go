package model

import (
	"testing"

	"github.com/npsgd-project/npsgd/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneParam() []param.Param {
	return []param.Param{param.NewIntParam("n", "n", "", false, 0, 0, false, false)}
}

func TestUpsertIsIdempotentPerKey(t *testing.T) {
	reg := NewRegistry()
	d1 := &Definition{ShortName: "abmu", Version: "v1", Kind: KindStandalone, Parameters: oneParam()}
	inserted := reg.Upsert(d1)
	assert.True(t, inserted)

	dup := &Definition{ShortName: "abmu", Version: "v1", Kind: KindStandalone, Parameters: oneParam()}
	inserted = reg.Upsert(dup)
	assert.False(t, inserted)

	got, ok := reg.Get(Key{ShortName: "abmu", Version: "v1"})
	require.True(t, ok)
	assert.Same(t, d1, got)
}

func TestUpsertAdvancesLatestAcrossVersions(t *testing.T) {
	reg := NewRegistry()
	d1 := &Definition{ShortName: "abmu", Version: "v1", Kind: KindStandalone, Parameters: oneParam()}
	d2 := &Definition{ShortName: "abmu", Version: "v2", Kind: KindStandalone, Parameters: oneParam()}
	reg.Upsert(d1)
	reg.Upsert(d2)

	latest, ok := reg.Latest("abmu")
	require.True(t, ok)
	assert.Equal(t, "v2", latest.Version)

	_, ok = reg.Get(Key{ShortName: "abmu", Version: "v1"})
	assert.True(t, ok, "old versions are never evicted")
}
