package gpucore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/gpuplot/internal/logging"
)

// DefaultProgramCacheSize is the number of compiled programs kept alive.
const DefaultProgramCacheSize = 64

// Key returns a content hash identifying the compiled program. Two
// descriptors with equal keys produce interchangeable programs.
func (d *ProgramDesc) Key() string {
	h := sha256.New()
	var scratch [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(scratch[:], v)
		h.Write(scratch[:])
	}
	h.Write([]byte(d.Source))
	h.Write([]byte{0})
	h.Write([]byte(d.VertexEntry))
	h.Write([]byte{0})
	h.Write([]byte(d.FragmentEntry))
	h.Write([]byte{0})
	writeU64(uint64(len(d.Buffers)))
	for _, b := range d.Buffers {
		writeU64(b.Stride)
		writeU64(uint64(b.StepMode))
		writeU64(uint64(len(b.Attributes)))
		for _, a := range b.Attributes {
			writeU64(uint64(a.Location))
			writeU64(uint64(a.Format))
			writeU64(a.Offset)
		}
	}
	writeU64(d.UniformSize)
	writeU64(uint64(d.TextureCount))
	writeU64(uint64(d.Topology))
	if d.Blend {
		writeU64(1)
	} else {
		writeU64(0)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramCache reuses compiled programs across configuration updates.
//
// Layers are rebuilt on every update, but their shaders rarely change, so
// programs are keyed by [ProgramDesc.Key]. Evicted programs are destroyed
// on the device.
type ProgramCache struct {
	mu     sync.Mutex
	device Device
	cache  *lru.Cache[string, ProgramID]
}

// NewProgramCache creates a cache holding up to size programs.
// A size <= 0 selects DefaultProgramCacheSize.
func NewProgramCache(device Device, size int) (*ProgramCache, error) {
	if device == nil {
		return nil, fmt.Errorf("gpucore: device is required")
	}
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	c := &ProgramCache{device: device}
	cache, err := lru.NewWithEvict(size, func(key string, id ProgramID) {
		logging.Logger().Debug("gpucore: evict program", "key", key[:12], "id", id)
		device.DestroyProgram(id)
	})
	if err != nil {
		return nil, fmt.Errorf("gpucore: create program cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// Program returns the cached program for desc, compiling it on a miss.
func (c *ProgramCache) Program(desc *ProgramDesc) (ProgramID, error) {
	key := desc.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.cache.Get(key); ok {
		return id, nil
	}
	id, err := c.device.CreateProgram(desc)
	if err != nil {
		return InvalidID, err
	}
	logging.Logger().Debug("gpucore: compiled program", "label", desc.Label, "id", id)
	c.cache.Add(key, id)
	return id, nil
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Purge destroys every cached program.
func (c *ProgramCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}
