package behaviours

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/phanxgames/grimoire"
)

// ShaderFile is [Shader] compiled from a file on disk instead of an inline
// parameter. The node's "path" parameter names the Kage file; while the node
// is rooted the file's directory is watched with fsnotify and every save
// reloads and recompiles, which is the hot-reload loop for editing shaders
// in an external editor.
//
// The watcher goroutine only flips an atomic flag; file IO and compilation
// stay on the render pass, so the single-threaded engine contract holds.
type ShaderFile struct {
	Shader

	watcher *fsnotify.Watcher
	pending atomic.Bool
	watched string
}

// NewShaderFile returns a fresh file-backed shader behaviour.
func NewShaderFile() *ShaderFile { return &ShaderFile{} }

func init() {
	grimoire.RegisterFactory("shaderfile", func() grimoire.Behaviour {
		return NewShaderFile()
	})
}

// NodeAttached declares the "path" parameter on top of the embedded shader's
// "source". The source parameter holds the last loaded file contents, so
// inspection widgets show what is actually running.
func (b *ShaderFile) NodeAttached(n *grimoire.Node) {
	b.Shader.NodeAttached(n)
	p := n.Params().MustAdd(grimoire.NewTextParam("path", "Shader File", ""))
	p.Bind(func(grimoire.Event) {
		b.pending.Store(true)
	})
}

// GLInit opens the watcher, loads the file, and compiles.
func (b *ShaderFile) GLInit(n *grimoire.Node) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		grimoire.Logger().Warn("shader file watcher unavailable", "err", err)
	} else {
		b.watcher = w
		go b.pump(w)
	}
	b.sync(n)
	return b.Shader.GLInit(n)
}

// GLRender reloads the file when a save or a path edit is pending, then
// defers to the embedded shader's render.
func (b *ShaderFile) GLRender(n *grimoire.Node, ctx *grimoire.RenderContext) error {
	if b.pending.Swap(false) {
		b.sync(n)
	}
	return b.Shader.GLRender(n, ctx)
}

// GLCleanup stops the watcher and drops the program.
func (b *ShaderFile) GLCleanup(n *grimoire.Node) {
	if b.watcher != nil {
		b.watcher.Close()
		b.watcher = nil
	}
	b.watched = ""
	b.Shader.GLCleanup(n)
}

// pump drains watcher channels until Close. Any activity in the watched
// directory marks a reload; the render pass rereads the file and the source
// parameter's change detection discards no-op reloads.
func (b *ShaderFile) pump(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				b.pending.Store(true)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			grimoire.Logger().Warn("shader file watcher", "err", err)
		}
	}
}

// sync points the watcher at the current path's directory and loads the file
// into the "source" parameter. Watching the directory instead of the file
// survives editors that save via rename.
func (b *ShaderFile) sync(n *grimoire.Node) {
	path := n.Params().Get("path").Text()
	if path != b.watched && b.watcher != nil {
		if b.watched != "" {
			b.watcher.Remove(filepath.Dir(b.watched))
		}
		if path != "" {
			if err := b.watcher.Add(filepath.Dir(path)); err != nil {
				grimoire.Logger().Warn("watch shader file",
					"path", path, "err", err)
			}
		}
	}
	b.watched = path
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		grimoire.Logger().Warn("read shader file", "path", path, "err", err)
		return
	}
	n.Params().Get("source").Set(string(data))
}
