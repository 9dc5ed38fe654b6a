package gpu

import (
	"errors"
	"testing"
)

func TestGeometryBuffersReplace(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	cd := newCountingDevice(device)

	g := geometryBuffers{label: "mesh"}
	if g.ready() {
		t.Fatal("empty buffers must not be ready")
	}
	if err := g.replace(cd, queue, make([]byte, 36), make([]byte, 8), 3); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !g.ready() || g.indexCount != 3 {
		t.Fatalf("ready=%v indexCount=%d, want true/3", g.ready(), g.indexCount)
	}
	first := g.vertBuf

	if err := g.replace(cd, queue, make([]byte, 48), make([]byte, 12), 6); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if g.vertBuf == first {
		t.Error("vertex buffer not replaced")
	}
	if cd.buffersCreated != 4 || cd.buffersDestroyed != 2 {
		t.Errorf("buffers created/destroyed = %d/%d, want 4/2", cd.buffersCreated, cd.buffersDestroyed)
	}
	if cd.live() != 2 {
		t.Errorf("live buffers = %d, want 2", cd.live())
	}

	g.destroy(cd)
	g.destroy(cd)
	if cd.doubleDestroys != 0 {
		t.Errorf("double destroys = %d", cd.doubleDestroys)
	}
	if cd.live() != 0 {
		t.Errorf("live buffers after destroy = %d, want 0", cd.live())
	}
	if g.ready() {
		t.Error("buffers ready after destroy")
	}
}

func TestGeometryBuffersReplaceFailureKeepsOld(t *testing.T) {
	tests := []struct {
		name   string
		failAt int // counted from the start of the second replace
	}{
		{"vertex allocation fails", 1},
		{"index allocation fails", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, queue, cleanup := createNoopDevice(t)
			defer cleanup()
			cd := newCountingDevice(device)

			g := geometryBuffers{label: "grid"}
			if err := g.replace(cd, queue, make([]byte, 20), make([]byte, 4), 2); err != nil {
				t.Fatalf("replace: %v", err)
			}
			oldVert, oldIndex := g.vertBuf, g.indexBuf

			cd.failBufferAt = cd.buffersCreated + tt.failAt
			err := g.replace(cd, queue, make([]byte, 40), make([]byte, 8), 4)
			if !errors.Is(err, errInjected) {
				t.Fatalf("err = %v, want injected failure", err)
			}
			if g.vertBuf != oldVert || g.indexBuf != oldIndex || g.indexCount != 2 {
				t.Error("previous geometry not kept after failed replace")
			}
			if cd.live() != 2 {
				t.Errorf("live buffers = %d, want 2 (partial pair leaked)", cd.live())
			}
			g.destroy(cd)
		})
	}
}

func TestCreateAndUploadBufferEmpty(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	if _, err := createAndUploadBuffer(device, queue, "empty", nil, 0); err == nil {
		t.Error("expected error for empty data")
	}
}
