// Package building models the navigable space of a multi-level structure as
// an immutable weighted graph over a regular grid of cells per level.
//
// The graph is built once from a Blueprint and shared read-only across all
// agents within a mission and across missions. Horizontal edges connect
// 4-adjacent cells on the same level; vertical edges connect stair cells on
// consecutive levels through the designated stairway region.
package building

import (
	"fmt"
	"math"

	"github.com/aparekh02/EvacuTrace/internal/types"
)

// NodeKind classifies a navigable cell.
type NodeKind string

const (
	// KindFloor is an ordinary navigable cell.
	KindFloor NodeKind = "floor"
	// KindStair is a cell inside the stairway region; stair cells on
	// consecutive levels are linked by vertical edges.
	KindStair NodeKind = "stair"
	// KindExit is a perimeter cell on the ground level.
	KindExit NodeKind = "exit"
)

// Coord identifies a cell by grid position and level index.
// A coordinate uniquely identifies a node within the structure.
type Coord struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Level int `json:"level"`
}

// NodeID is a dense index into the graph's node table.
type NodeID int32

// Node is one navigable cell. Nodes are created at build time and are
// immutable thereafter.
type Node struct {
	ID    NodeID
	Coord Coord
	Kind  NodeKind
}

// Adjacency is one traversable edge out of a node with its base distance
// cost. Effective traversal cost is recomputed per planner query, never
// stored here.
type Adjacency struct {
	To   NodeID
	Cost float64
}

// Rect is an inclusive axis-aligned cell range, used for the stairway region.
type Rect struct {
	MinX int `yaml:"min_x" json:"min_x"`
	MinY int `yaml:"min_y" json:"min_y"`
	MaxX int `yaml:"max_x" json:"max_x"`
	MaxY int `yaml:"max_y" json:"max_y"`
}

// Contains reports whether the cell (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Blueprint describes the structure to build a graph for.
type Blueprint struct {
	// Levels is the number of levels, bottom level is 0.
	Levels int `yaml:"levels"`
	// GridSize is the side length of the square cell grid per level.
	GridSize int `yaml:"grid_size"`
	// CellSize is the edge length of one cell in meters.
	CellSize float64 `yaml:"cell_size"`
	// LevelHeight is the vertical distance between consecutive levels in meters.
	LevelHeight float64 `yaml:"level_height"`
	// VerticalCost is the base cost of one stair edge. Must be at least
	// LevelHeight so that the straight-line heuristic stays admissible.
	VerticalCost float64 `yaml:"vertical_cost"`
	// Stairway is the cell region that carries vertical edges on every level.
	Stairway Rect `yaml:"stairway"`
	// Start is the shared start cell for all agents.
	Start Coord `yaml:"start"`
	// Target is the single target cell.
	Target Coord `yaml:"target"`
}

// DefaultBlueprint returns the four-level 20x20 structure with a central
// stairway, ground-level start and a top-level target.
func DefaultBlueprint() Blueprint {
	return Blueprint{
		Levels:       4,
		GridSize:     20,
		CellSize:     1.0,
		LevelHeight:  3.0,
		VerticalCost: 6.0,
		Stairway:     Rect{MinX: 8, MinY: 8, MaxX: 11, MaxY: 11},
		Start:        Coord{X: 2, Y: 2, Level: 0},
		Target:       Coord{X: 15, Y: 15, Level: 3},
	}
}

// Graph is the immutable navigable-space graph. All methods are safe for
// concurrent use because the graph is never mutated after Build.
type Graph struct {
	bp    Blueprint
	nodes []Node
	adj   [][]Adjacency
	start NodeID
	goal  NodeID
}

// Build validates the blueprint and constructs the graph.
// It fails only on invalid configuration.
func Build(bp Blueprint) (*Graph, error) {
	if err := validate(bp); err != nil {
		return nil, err
	}

	g := &Graph{bp: bp}

	perLevel := bp.GridSize * bp.GridSize
	g.nodes = make([]Node, bp.Levels*perLevel)
	g.adj = make([][]Adjacency, len(g.nodes))

	for level := 0; level < bp.Levels; level++ {
		for y := 0; y < bp.GridSize; y++ {
			for x := 0; x < bp.GridSize; x++ {
				id := g.idAt(x, y, level)
				g.nodes[id] = Node{
					ID:    id,
					Coord: Coord{X: x, Y: y, Level: level},
					Kind:  kindAt(bp, x, y, level),
				}
			}
		}
	}

	g.buildEdges()

	g.start = g.idAt(bp.Start.X, bp.Start.Y, bp.Start.Level)
	g.goal = g.idAt(bp.Target.X, bp.Target.Y, bp.Target.Level)
	return g, nil
}

func validate(bp Blueprint) error {
	if bp.Levels <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("levels must be positive, got %d", bp.Levels))
	}
	if bp.GridSize <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("grid size must be positive, got %d", bp.GridSize))
	}
	if bp.CellSize <= 0 || bp.LevelHeight <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"cell size and level height must be positive")
	}
	if bp.VerticalCost < bp.LevelHeight {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("vertical cost %.2f below level height %.2f breaks heuristic admissibility",
				bp.VerticalCost, bp.LevelHeight))
	}
	s := bp.Stairway
	if s.MinX > s.MaxX || s.MinY > s.MaxY {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "stairway region is empty")
	}
	if s.MinX < 0 || s.MinY < 0 || s.MaxX >= bp.GridSize || s.MaxY >= bp.GridSize {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("stairway region %+v outside grid bounds 0..%d", s, bp.GridSize-1))
	}
	for _, c := range []Coord{bp.Start, bp.Target} {
		if c.X < 0 || c.X >= bp.GridSize || c.Y < 0 || c.Y >= bp.GridSize ||
			c.Level < 0 || c.Level >= bp.Levels {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("coordinate %+v outside structure", c))
		}
	}
	return nil
}

func kindAt(bp Blueprint, x, y, level int) NodeKind {
	if bp.Stairway.Contains(x, y) {
		return KindStair
	}
	if level == 0 && (x == 0 || x == bp.GridSize-1 || y == 0 || y == bp.GridSize-1) {
		return KindExit
	}
	return KindFloor
}

// buildEdges creates horizontal edges between 4-adjacent cells on the same
// level and vertical edges between stair cells on consecutive levels.
// Direction order is fixed so that Neighbors is deterministic.
func (g *Graph) buildEdges() {
	bp := g.bp
	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for i := range g.nodes {
		n := &g.nodes[i]
		c := n.Coord
		adj := make([]Adjacency, 0, 6)

		for _, d := range dirs {
			nx, ny := c.X+d[0], c.Y+d[1]
			if nx < 0 || nx >= bp.GridSize || ny < 0 || ny >= bp.GridSize {
				continue
			}
			adj = append(adj, Adjacency{To: g.idAt(nx, ny, c.Level), Cost: bp.CellSize})
		}

		if n.Kind == KindStair {
			if c.Level+1 < bp.Levels {
				adj = append(adj, Adjacency{To: g.idAt(c.X, c.Y, c.Level+1), Cost: bp.VerticalCost})
			}
			if c.Level > 0 {
				adj = append(adj, Adjacency{To: g.idAt(c.X, c.Y, c.Level-1), Cost: bp.VerticalCost})
			}
		}

		g.adj[n.ID] = adj
	}
}

func (g *Graph) idAt(x, y, level int) NodeID {
	return NodeID((level*g.bp.GridSize+y)*g.bp.GridSize + x)
}

// Blueprint returns the blueprint the graph was built from.
func (g *Graph) Blueprint() Blueprint { return g.bp }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Start returns the shared start node id.
func (g *Graph) Start() NodeID { return g.start }

// Target returns the target node id.
func (g *Graph) Target() NodeID { return g.goal }

// IDAt returns the node id for a coordinate, or false when the coordinate
// lies outside the structure.
func (g *Graph) IDAt(c Coord) (NodeID, bool) {
	if c.X < 0 || c.X >= g.bp.GridSize || c.Y < 0 || c.Y >= g.bp.GridSize ||
		c.Level < 0 || c.Level >= g.bp.Levels {
		return 0, false
	}
	return g.idAt(c.X, c.Y, c.Level), true
}

// Neighbors returns the adjacencies of a node in a fixed deterministic
// order. The returned slice is shared and must not be modified.
func (g *Graph) Neighbors(id NodeID) []Adjacency {
	return g.adj[id]
}

// Position returns the metric position of a node's cell center.
func (g *Graph) Position(id NodeID) (x, y, z float64) {
	c := g.nodes[id].Coord
	return float64(c.X) * g.bp.CellSize,
		float64(c.Y) * g.bp.CellSize,
		float64(c.Level) * g.bp.LevelHeight
}

// Distance returns the straight-line metric distance between two nodes,
// including the vertical level-difference term. It lower-bounds the
// unweighted cost of any route between them.
func (g *Graph) Distance(a, b NodeID) float64 {
	ax, ay, az := g.Position(a)
	bx, by, bz := g.Position(b)
	dx, dy, dz := ax-bx, ay-by, az-bz
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
