package grimoire

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// handleIDCounter is a plain counter; grimoire is single-threaded.
// IDs are never reused, so a handle's numeric identity is unique while live.
var handleIDCounter uint32

func nextHandleID() uint32 {
	handleIDCounter++
	return handleIDCounter
}

// Resource is a tracked GPU allocation. Every resource is owned by exactly
// one [ResourceManager], assigned at creation. After Release the handle ID
// is zero and the resource must not be used again.
type Resource interface {
	// HandleID returns the resource's numeric identity, or 0 once released.
	HandleID() uint32
	// Release frees the underlying GPU object and zeroes the handle.
	// Releasing twice is a no-op the second time.
	Release()
}

// handle carries the identity shared by all resource types.
type handle struct {
	id  uint32
	mgr *ResourceManager
}

func (h *handle) HandleID() uint32 { return h.id }

// Manager returns the resource manager that owns this handle.
func (h *handle) Manager() *ResourceManager { return h.mgr }

// Image is a tracked offscreen *ebiten.Image.
type Image struct {
	handle
	img *ebiten.Image
}

// Ebiten returns the underlying image. Panics if the image was released:
// a released handle must never be dereferenced again.
func (i *Image) Ebiten() *ebiten.Image {
	if i.id == 0 {
		panic("grimoire: use of released image handle")
	}
	return i.img
}

// Release frees the image. Safe to call twice; the second call is a no-op.
func (i *Image) Release() {
	if i.id == 0 {
		return
	}
	i.id = 0
	i.img.Deallocate()
	i.img = nil
}

// Shader is a tracked compiled Kage shader.
type Shader struct {
	handle
	shader *ebiten.Shader
}

// Ebiten returns the underlying shader. Panics if the shader was released.
func (s *Shader) Ebiten() *ebiten.Shader {
	if s.id == 0 {
		panic("grimoire: use of released shader handle")
	}
	return s.shader
}

// Release frees the shader. Safe to call twice.
func (s *Shader) Release() {
	if s.id == 0 {
		return
	}
	s.id = 0
	s.shader.Deallocate()
	s.shader = nil
}

// currentManager is the single manager allowed to register new resources.
// A reentrancy guard, not a lock: grimoire is single-threaded and nesting
// two managers is a fatal usage error.
var currentManager *ResourceManager

// CurrentManager returns the manager that is current, or nil.
func CurrentManager() *ResourceManager { return currentManager }

// ResourceManager tracks the GPU resources a node allocates so they can be
// bulk-released when the node leaves the scene. Resources register with the
// current manager at creation; see [NewImage] and [NewShader].
type ResourceManager struct {
	resources []Resource
}

// NewResourceManager creates an empty manager.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// Live returns the number of live resources the manager tracks. Handles
// released individually no longer count.
func (m *ResourceManager) Live() int {
	n := 0
	for _, r := range m.resources {
		if r.HandleID() != 0 {
			n++
		}
	}
	return n
}

// AsCurrent makes the manager current, runs fn, and restores the
// not-current state even if fn panics. Resources created by fn stay live
// for later passes; use [ResourceManager.AutoRelease] for scratch work.
//
// Panics if another manager is already current: at most one manager may be
// current at a time, and nesting is a programmer error.
func (m *ResourceManager) AsCurrent(fn func()) {
	if currentManager != nil {
		panic("grimoire: another ResourceManager is already current")
	}
	currentManager = m
	defer func() { currentManager = nil }()
	fn()
}

// AutoRelease is AsCurrent followed by an unconditional Release, for
// resources whose lifetime is a single block.
func (m *ResourceManager) AutoRelease(fn func()) {
	defer m.Release()
	m.AsCurrent(fn)
}

// Release releases every live resource and clears the set. Idempotent:
// releasing an already-released manager does nothing, and resources are
// never double-released.
func (m *ResourceManager) Release() {
	for _, r := range m.resources {
		r.Release()
	}
	m.resources = m.resources[:0]
}

// adopt registers a resource with this manager.
func (m *ResourceManager) adopt(r Resource) {
	m.resources = append(m.resources, r)
}

// requireCurrent returns the current manager or panics. Resource creation
// outside a manager scope would leak, so it fails loudly.
func requireCurrent() *ResourceManager {
	if currentManager == nil {
		panic("grimoire: no ResourceManager is current")
	}
	return currentManager
}

// NewImage allocates a w x h offscreen image owned by the current manager.
// Must be called inside [ResourceManager.AsCurrent].
func NewImage(w, h int) *Image {
	m := requireCurrent()
	img := &Image{
		handle: handle{id: nextHandleID(), mgr: m},
		img:    ebiten.NewImage(w, h),
	}
	m.adopt(img)
	return img
}

// NewShader compiles Kage source into a shader owned by the current
// manager. A compile failure returns the compiler's error message and
// registers nothing. Must be called inside [ResourceManager.AsCurrent].
func NewShader(src []byte) (*Shader, error) {
	m := requireCurrent()
	sh, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("grimoire: shader compile: %w", err)
	}
	s := &Shader{
		handle: handle{id: nextHandleID(), mgr: m},
		shader: sh,
	}
	m.adopt(s)
	return s, nil
}
