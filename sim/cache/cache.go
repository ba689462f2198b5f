// Package cache replays memory accesses through a single-level
// set-associative cache with LRU replacement and counts hits and misses.
package cache

import "fmt"

// Set is one cache set. Blocks and Ages are parallel; entries stay in
// insertion order, which is the eviction tie-break.
type Set struct {
	Blocks []uint64 // resident block numbers
	Ages   []uint32 // accesses to this set since each block was last touched
}

func (s *Set) indexOf(block uint64) int {
	for i, b := range s.Blocks {
		if b == block {
			return i
		}
	}
	return -1
}

// touch makes the entry at idx the most recently used.
func (s *Set) touch(idx int) {
	for i := range s.Ages {
		if i == idx {
			s.Ages[i] = 0
		} else {
			s.Ages[i]++
		}
	}
}

// victim returns the slot with the highest age. Equal ages resolve to the
// lowest slot, the earliest inserted.
func (s *Set) victim() int {
	lru := 0
	for i := 1; i < len(s.Ages); i++ {
		if s.Ages[i] > s.Ages[lru] {
			lru = i
		}
	}
	return lru
}

func (s *Set) remove(idx int) {
	s.Blocks = append(s.Blocks[:idx], s.Blocks[idx+1:]...)
	s.Ages = append(s.Ages[:idx], s.Ages[idx+1:]...)
}

// Result is the outcome of a replay.
type Result struct {
	Hits   uint64
	Misses uint64
}

// Accesses returns Hits + Misses.
func (r Result) Accesses() uint64 {
	return r.Hits + r.Misses
}

// Cache is the set-associative cache state. It is not safe for concurrent use.
type Cache struct {
	config  Config
	numSets uint64
	sets    []Set
	result  Result
}

// New returns an empty cache, or a *ConfigurationError.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	numSets := config.NumSets()
	c := &Cache{
		config:  config,
		numSets: numSets,
		sets:    make([]Set, numSets),
	}
	for i := range c.sets {
		c.sets[i] = Set{
			Blocks: make([]uint64, 0, config.Associativity),
			Ages:   make([]uint32, 0, config.Associativity),
		}
	}
	return c, nil
}

// Config returns the cache geometry.
func (c *Cache) Config() Config {
	return c.config
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() uint64 {
	return c.numSets
}

// Locate returns the block number and set index for an address.
func (c *Cache) Locate(addr uint64) (block, set uint64) {
	block = addr / c.config.BlockSize
	return block, block % c.numSets
}

// Access replays one access and reports whether it hit.
func (c *Cache) Access(addr uint64) bool {
	block, setID := c.Locate(addr)
	set := &c.sets[setID]

	if idx := set.indexOf(block); idx >= 0 {
		c.result.Hits++
		set.touch(idx)
		return true
	}

	c.result.Misses++
	if uint64(len(set.Blocks)) >= c.config.Associativity {
		set.remove(set.victim())
	}
	set.Blocks = append(set.Blocks, block)
	set.Ages = append(set.Ages, 0)
	set.touch(len(set.Blocks) - 1)
	return false
}

// Result returns the counts so far.
func (c *Cache) Result() Result {
	return c.result
}

// Set returns a copy of set i.
func (c *Cache) Set(i uint64) (Set, error) {
	if i >= c.numSets {
		return Set{}, fmt.Errorf("set %d out of range [0, %d)", i, c.numSets)
	}
	s := c.sets[i]
	return Set{
		Blocks: append([]uint64(nil), s.Blocks...),
		Ages:   append([]uint32(nil), s.Ages...),
	}, nil
}

// Simulate replays accesses in order through a fresh cache.
func Simulate(accesses []Access, config Config) (Result, error) {
	c, err := New(config)
	if err != nil {
		return Result{}, err
	}
	for _, a := range accesses {
		c.Access(a.Address)
	}
	return c.Result(), nil
}
