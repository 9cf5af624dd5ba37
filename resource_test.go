package grimoire

import "testing"

// --- Current-manager guard ---

func TestAsCurrentScoping(t *testing.T) {
	m := NewResourceManager()
	if CurrentManager() != nil {
		t.Fatal("no manager should be current at rest")
	}
	m.AsCurrent(func() {
		if CurrentManager() != m {
			t.Error("manager should be current inside the block")
		}
	})
	if CurrentManager() != nil {
		t.Error("manager should be restored to not-current")
	}
}

func TestAsCurrentRestoresOnPanic(t *testing.T) {
	m := NewResourceManager()
	func() {
		defer func() { recover() }()
		m.AsCurrent(func() { panic("boom") })
	}()
	if CurrentManager() != nil {
		t.Error("panic inside the block must still restore not-current")
	}
}

func TestNestedAsCurrentPanics(t *testing.T) {
	a := NewResourceManager()
	b := NewResourceManager()
	panicked := false
	a.AsCurrent(func() {
		defer func() {
			if recover() != nil {
				panicked = true
			}
		}()
		b.AsCurrent(func() {})
	})
	if !panicked {
		t.Error("nesting a second manager must panic")
	}
	if CurrentManager() != nil {
		t.Error("outer scope exit must restore not-current")
	}
}

func TestCreateOutsideManagerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic creating a resource with no current manager")
		}
	}()
	NewImage(4, 4)
}

// --- Handles ---

func TestNewImageRegistersWithCurrent(t *testing.T) {
	m := NewResourceManager()
	var img *Image
	m.AsCurrent(func() {
		img = NewImage(4, 4)
	})
	if img.HandleID() == 0 {
		t.Error("live handle should have a non-zero ID")
	}
	if img.Manager() != m {
		t.Error("handle should record its owning manager")
	}
	if m.Live() != 1 {
		t.Errorf("Live = %d, want 1", m.Live())
	}
	if img.Ebiten() == nil {
		t.Error("live image should expose its ebiten image")
	}
	m.Release()
}

func TestUniqueHandleIDs(t *testing.T) {
	m := NewResourceManager()
	var a, b *Image
	m.AsCurrent(func() {
		a = NewImage(2, 2)
		b = NewImage(2, 2)
	})
	if a.HandleID() == b.HandleID() {
		t.Errorf("IDs should be unique: %d, %d", a.HandleID(), b.HandleID())
	}
	m.Release()
}

func TestImageReleaseIdempotent(t *testing.T) {
	m := NewResourceManager()
	var img *Image
	m.AsCurrent(func() { img = NewImage(2, 2) })

	img.Release()
	if img.HandleID() != 0 {
		t.Error("released handle should have ID 0")
	}
	img.Release() // second release is a no-op

	defer func() {
		if recover() == nil {
			t.Error("expected panic using a released image")
		}
	}()
	img.Ebiten()
}

// --- Manager release ---

func TestManagerReleaseIdempotent(t *testing.T) {
	m := NewResourceManager()
	var img *Image
	m.AsCurrent(func() { img = NewImage(2, 2) })

	m.Release()
	if m.Live() != 0 {
		t.Errorf("Live = %d after Release, want 0", m.Live())
	}
	if img.HandleID() != 0 {
		t.Error("manager release must release its handles")
	}
	// Second release must be a no-op, handles are not double-released.
	m.Release()
}

func TestManagerReleaseAfterHandleRelease(t *testing.T) {
	m := NewResourceManager()
	var img *Image
	m.AsCurrent(func() { img = NewImage(2, 2) })

	img.Release()
	m.Release() // must not double-release the already-freed handle
}

func TestAutoRelease(t *testing.T) {
	m := NewResourceManager()
	var img *Image
	m.AutoRelease(func() {
		img = NewImage(2, 2)
	})
	if m.Live() != 0 {
		t.Errorf("Live = %d after AutoRelease, want 0", m.Live())
	}
	if img.HandleID() != 0 {
		t.Error("AutoRelease must free scratch resources on exit")
	}
}

// --- Shaders ---

func TestNewShaderCompileError(t *testing.T) {
	m := NewResourceManager()
	m.AsCurrent(func() {
		if _, err := NewShader([]byte("not a kage program")); err == nil {
			t.Error("expected a compile error")
		}
	})
	if m.Live() != 0 {
		t.Error("a failed compile must register nothing")
	}
}
