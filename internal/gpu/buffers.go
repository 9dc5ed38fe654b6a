package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// geometryBuffers owns the vertex and index buffer of one primitive (mesh or
// grid). The pair is replaced as a unit on every rebuild.
type geometryBuffers struct {
	label      string
	vertBuf    hal.Buffer
	indexBuf   hal.Buffer
	indexCount uint32
	bytes      uint64
}

// replace uploads new vertex and index data. The new pair is allocated
// first; the old pair is destroyed only after both new buffers exist, so a
// failed rebuild leaves the previous geometry intact and leaks nothing.
func (g *geometryBuffers) replace(device hal.Device, queue hal.Queue, vertexData, indexData []byte, indexCount uint32) error {
	vertBuf, err := createAndUploadBuffer(device, queue, g.label+"_vertices", vertexData,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	indexBuf, err := createAndUploadBuffer(device, queue, g.label+"_indices", indexData,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		device.DestroyBuffer(vertBuf)
		return err
	}

	g.destroy(device)
	g.vertBuf = vertBuf
	g.indexBuf = indexBuf
	g.indexCount = indexCount
	g.bytes = uint64(len(vertexData) + len(indexData))

	slogger().Debug("gpu: geometry uploaded",
		"label", g.label,
		"vertex_bytes", len(vertexData),
		"index_bytes", len(indexData),
		"indices", indexCount)
	return nil
}

// ready reports whether the pair holds drawable geometry.
func (g *geometryBuffers) ready() bool {
	return g.vertBuf != nil && g.indexBuf != nil && g.indexCount > 0
}

// count returns the number of live buffers.
func (g *geometryBuffers) count() int {
	n := 0
	if g.vertBuf != nil {
		n++
	}
	if g.indexBuf != nil {
		n++
	}
	return n
}

// destroy releases both buffers. Each handle is nil-checked and cleared so
// repeated calls are no-ops.
func (g *geometryBuffers) destroy(device hal.Device) {
	if g.indexBuf != nil {
		device.DestroyBuffer(g.indexBuf)
		g.indexBuf = nil
	}
	if g.vertBuf != nil {
		device.DestroyBuffer(g.vertBuf)
		g.vertBuf = nil
	}
	g.indexCount = 0
	g.bytes = 0
}

// createAndUploadBuffer creates a GPU buffer sized to data and uploads it.
func createAndUploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("create %s: empty data", label)
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}
