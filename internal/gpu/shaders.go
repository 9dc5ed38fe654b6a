package gpu

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/gogpu/naga"
)

// Embedded default shader assets, laid out as <program>/<program>_<stage>.wgsl.
//
//go:embed shaders
var embeddedShaders embed.FS

// Program is one vertex+fragment shader pair compiled as a single module.
type Program struct {
	// Name is the asset directory and label prefix ("mesh" or "grid").
	Name string

	// VertexEntry and FragmentEntry are the WGSL entry point names.
	VertexEntry   string
	FragmentEntry string

	// Source is the vertex asset text followed by the fragment asset text.
	Source string
}

// ShaderSet holds the two shader programs used by the renderer.
type ShaderSet struct {
	Mesh Program
	Grid Program
}

// DefaultShaderFS returns the embedded shader assets.
func DefaultShaderFS() fs.FS {
	sub, err := fs.Sub(embeddedShaders, "shaders")
	if err != nil {
		panic(err) // embedded layout is fixed at build time
	}
	return sub
}

// LoadShaders reads both programs from fsys and validates them.
//
// Expected layout:
//
//	mesh/mesh_vertex.wgsl   mesh/mesh_fragment.wgsl
//	grid/grid_vertex.wgsl   grid/grid_fragment.wgsl
func LoadShaders(fsys fs.FS) (*ShaderSet, error) {
	mesh, err := loadProgram(fsys, "mesh")
	if err != nil {
		return nil, err
	}
	grid, err := loadProgram(fsys, "grid")
	if err != nil {
		return nil, err
	}
	return &ShaderSet{Mesh: mesh, Grid: grid}, nil
}

// DefaultShaders loads the embedded shader assets.
func DefaultShaders() (*ShaderSet, error) {
	return LoadShaders(DefaultShaderFS())
}

func loadProgram(fsys fs.FS, name string) (Program, error) {
	p := Program{
		Name:          name,
		VertexEntry:   name + "_vertex",
		FragmentEntry: name + "_fragment",
	}

	vertex, err := fs.ReadFile(fsys, path.Join(name, p.VertexEntry+".wgsl"))
	if err != nil {
		return Program{}, fmt.Errorf("%w: %s vertex: %w", ErrShaderSource, name, err)
	}
	fragment, err := fs.ReadFile(fsys, path.Join(name, p.FragmentEntry+".wgsl"))
	if err != nil {
		return Program{}, fmt.Errorf("%w: %s fragment: %w", ErrShaderSource, name, err)
	}
	p.Source = string(vertex) + "\n" + string(fragment)

	if err := p.Validate(); err != nil {
		return Program{}, err
	}
	slogger().Debug("gpu: shader program loaded", "program", name, "bytes", len(p.Source))
	return p, nil
}

// Validate checks that both entry points are declared and that the module
// compiles with naga.
func (p Program) Validate() error {
	for _, entry := range []string{p.VertexEntry, p.FragmentEntry} {
		if !strings.Contains(p.Source, "fn "+entry) {
			return fmt.Errorf("%w: %s: entry point %q not declared", ErrShaderSource, p.Name, entry)
		}
	}
	if _, err := naga.Compile(p.Source); err != nil {
		return fmt.Errorf("%w: %s: compile: %w", ErrShaderSource, p.Name, err)
	}
	return nil
}
