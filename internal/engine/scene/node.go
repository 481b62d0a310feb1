package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dungeonview/internal/engine/geometry"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/picking"
)

// Part is one mesh of a node. The part owns its mesh handle.
type Part struct {
	Mesh     gpu.MeshID
	Material gpu.Material
	Local    mgl32.Mat4
	Bounds   picking.AABB // local, before Local is applied
}

// Node is a positioned set of parts inside a group.
type Node struct {
	Tag      any
	Position mgl32.Vec3
	Rotation float32 // radians around +Y
	Scale    float32
	Visible  bool
	Parts    []*Part

	group *Group
}

// Group returns the group that owns the node, or nil once removed.
func (n *Node) Group() *Group { return n.group }

// Transform returns the node's model matrix.
func (n *Node) Transform() mgl32.Mat4 {
	s := n.Scale
	if s == 0 {
		s = 1
	}
	return mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z()).
		Mul4(mgl32.HomogRotate3DY(n.Rotation)).
		Mul4(mgl32.Scale3D(s, s, s))
}

// Bounds returns the node's world-space bounds.
func (n *Node) Bounds() picking.AABB {
	m := n.Transform()
	var box picking.AABB
	for i, p := range n.Parts {
		b := p.Bounds.Transform(m.Mul4(p.Local))
		if i == 0 {
			box = b
		} else {
			box = box.Union(b)
		}
	}
	return box
}

// AddShape uploads shape and attaches it to the node with a local transform.
func (n *Node) AddShape(shape geometry.Shape, mat gpu.Material, local mgl32.Mat4) (*Part, error) {
	if n.group == nil {
		return nil, fmt.Errorf("adding part: node not in a group")
	}
	mesh, err := n.group.dev.CreateMesh(shape.Geometry)
	if err != nil {
		return nil, fmt.Errorf("adding part: %w", err)
	}
	p := &Part{Mesh: mesh, Material: mat, Local: local, Bounds: shape.Bounds}
	n.Parts = append(n.Parts, p)
	return p, nil
}

// Remove detaches the node from its group and releases its meshes.
func (n *Node) Remove() {
	if n.group != nil {
		n.group.Remove(n)
	}
}

func (n *Node) release(dev gpu.Device) {
	for _, p := range n.Parts {
		dev.DeleteMesh(p.Mesh)
	}
	n.Parts = nil
	n.group = nil
}

// Group exclusively owns a list of nodes.
type Group struct {
	Name    string
	Visible bool

	dev   gpu.Device
	nodes []*Node
}

func newGroup(name string, dev gpu.Device) *Group {
	return &Group{Name: name, Visible: true, dev: dev}
}

// NewNode creates an empty visible node in the group.
func (g *Group) NewNode(tag any) *Node {
	n := &Node{Tag: tag, Scale: 1, Visible: true, group: g}
	g.nodes = append(g.nodes, n)
	return n
}

// Nodes returns the group's nodes. The slice must not be modified.
func (g *Group) Nodes() []*Node { return g.nodes }

// Len returns the number of nodes.
func (g *Group) Len() int { return len(g.nodes) }

// Remove releases n if it belongs to the group.
func (g *Group) Remove(n *Node) {
	for i, m := range g.nodes {
		if m == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			n.release(g.dev)
			return
		}
	}
}

// Clear releases every node.
func (g *Group) Clear() {
	for _, n := range g.nodes {
		n.release(g.dev)
	}
	g.nodes = nil
}

// Hit is a picked node and the ray distance to it.
type Hit struct {
	Node     *Node
	Distance float32
}

// Pick returns the closest visible node hit by ray.
func (g *Group) Pick(ray picking.Ray) (Hit, bool) {
	var best Hit
	found := false
	if !g.Visible {
		return best, false
	}
	for _, n := range g.nodes {
		if !n.Visible || len(n.Parts) == 0 {
			continue
		}
		t, ok := ray.IntersectAABB(n.Bounds())
		if !ok {
			continue
		}
		if !found || t < best.Distance {
			best = Hit{Node: n, Distance: t}
			found = true
		}
	}
	return best, found
}
