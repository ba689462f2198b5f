package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setZero returns n distinct addresses that all map to set 0 of the default
// geometry (64 sets of 64-byte blocks).
func setZero(n int) []uint64 {
	addrs := make([]uint64, n)
	for i := range addrs {
		addrs[i] = uint64(i) * 4096
	}
	return addrs
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"direct mapped", Config{CacheSize: 1024, BlockSize: 64, Associativity: 1}, false},
		{"fully associative", Config{CacheSize: 512, BlockSize: 64, Associativity: 8}, false},
		{"zero size", Config{CacheSize: 0, BlockSize: 64, Associativity: 8}, true},
		{"zero block", Config{CacheSize: 32768, BlockSize: 0, Associativity: 8}, true},
		{"zero ways", Config{CacheSize: 32768, BlockSize: 64, Associativity: 0}, true},
		{"not a whole number of sets", Config{CacheSize: 1000, BlockSize: 64, Associativity: 8}, true},
		{"smaller than one set", Config{CacheSize: 256, BlockSize: 64, Associativity: 8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.config, ce.Config)
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	c, err := New(Config{CacheSize: 1000, BlockSize: 64, Associativity: 8})
	assert.Nil(t, c)
	var ce *ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestCache_Geometry(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, uint64(64), c.NumSets())

	block, set := c.Locate(0x7ffd0040)
	assert.Equal(t, uint64(0x7ffd0040/64), block)
	assert.Equal(t, block%64, set)
}

func TestCache_HitRefreshesRecency(t *testing.T) {
	// GIVEN seven distinct blocks loaded into one set
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	for _, a := range setZero(7) {
		assert.False(t, c.Access(a))
	}

	// WHEN the first block is accessed again
	hit := c.Access(0)

	// THEN it hits and becomes the most recently used entry
	assert.True(t, hit)
	set, err := c.Set(0)
	require.NoError(t, err)
	require.Len(t, set.Blocks, 7)
	assert.Equal(t, uint64(0), set.Blocks[0])
	assert.Equal(t, uint32(0), set.Ages[0])
	for i := 1; i < 7; i++ {
		assert.Greater(t, set.Ages[i], uint32(0), "slot %d", i)
	}
	assert.Equal(t, Result{Hits: 1, Misses: 7}, c.Result())
}

func TestCache_FullSetEvictsLeastRecentlyUsed(t *testing.T) {
	// GIVEN a full set whose oldest block was just refreshed
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	addrs := setZero(9)
	for _, a := range addrs[:8] {
		c.Access(a)
	}
	require.True(t, c.Access(addrs[0]))

	// WHEN a ninth distinct block arrives
	assert.False(t, c.Access(addrs[8]))

	// THEN the second block, now least recently used, was evicted
	assert.True(t, c.Access(addrs[0]))
	assert.False(t, c.Access(addrs[1]))

	set, err := c.Set(0)
	require.NoError(t, err)
	assert.Len(t, set.Blocks, 8)
}

func TestCache_SetsAreIndependent(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	// GIVEN set 0 overflowed with nine blocks
	for _, a := range setZero(9) {
		c.Access(a)
	}
	// AND one block in set 1
	c.Access(64)

	// THEN set 1 keeps its block
	assert.True(t, c.Access(64))
	s1, err := c.Set(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, s1.Blocks)
}

func TestCache_SetReturnsCopy(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	c.Access(0)

	s, err := c.Set(0)
	require.NoError(t, err)
	s.Blocks[0] = 99

	assert.True(t, c.Access(0))

	_, err = c.Set(64)
	assert.Error(t, err)
}

func TestCache_DirectMapped_Conflicts(t *testing.T) {
	// GIVEN a direct-mapped cache of 16 sets
	c, err := New(Config{CacheSize: 1024, BlockSize: 64, Associativity: 1})
	require.NoError(t, err)

	// WHEN two blocks that share a set alternate
	for i := 0; i < 4; i++ {
		c.Access(0)
		c.Access(1024)
	}

	// THEN every access misses
	assert.Equal(t, Result{Misses: 8}, c.Result())
}

func TestSimulate_CountsEveryAccess(t *testing.T) {
	var accesses []Access
	for i := 0; i < 500; i++ {
		accesses = append(accesses, Access{Kind: AccessKind(i % 2), Address: uint64(i*i) % 100000})
	}

	res, err := Simulate(accesses, DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, uint64(len(accesses)), res.Accesses())
}

func TestSimulate_SameBlockHits(t *testing.T) {
	res, err := Simulate([]Access{
		{Kind: Store, Address: 0x1000},
		{Kind: Load, Address: 0x1008},
		{Kind: Load, Address: 0x103f},
		{Kind: Load, Address: 0x1040},
	}, DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, Result{Hits: 2, Misses: 2}, res)
}

func TestSimulate_Empty(t *testing.T) {
	res, err := Simulate(nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
