package planner

import (
	"container/heap"
	"math"

	"github.com/aparekh02/EvacuTrace/internal/building"
)

// costEpsilon is the tolerance for treating two path costs as tied.
const costEpsilon = 1e-9

// searchNode is one frontier entry.
type searchNode struct {
	id    building.NodeID
	g     float64 // weighted cost so far
	f     float64 // g + scaled heuristic
	verts int     // vertical transitions so far, first tie-break
	index int     // heap index
}

// frontier implements heap.Interface ordered by f, then by fewer vertical
// transitions, then by lower node id. The ordering makes the search fully
// deterministic and reproducible.
type frontier []*searchNode

func (h frontier) Len() int { return len(h) }

func (h frontier) Less(i, j int) bool {
	if d := h[i].f - h[j].f; d < -costEpsilon || d > costEpsilon {
		return d < 0
	}
	if h[i].verts != h[j].verts {
		return h[i].verts < h[j].verts
	}
	return h[i].id < h[j].id
}

func (h frontier) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *frontier) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *frontier) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// FindPath runs an A*-style best-first search from start to goal over the
// building graph using the cost model's hazard-weighted edge costs.
// It returns a PLAN_NO_PATH error when the frontier exhausts without
// reaching the goal.
func FindPath(g *building.Graph, start, goal building.NodeID, cm CostModel, opts Options) (Path, error) {
	scale := opts.HeuristicScale
	if scale == 0 {
		scale = 1.0
	}

	n := g.NodeCount()
	gScore := make([]float64, n)
	vertCount := make([]int, n)
	cameFrom := make([]building.NodeID, n)
	closed := make([]bool, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
		cameFrom[i] = -1
	}

	heuristic := func(id building.NodeID) float64 {
		return g.Distance(id, goal) * scale
	}

	open := &frontier{}
	heap.Init(open)

	gScore[start] = 0
	heap.Push(open, &searchNode{id: start, g: 0, f: heuristic(start)})

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)

		if closed[current.id] {
			continue
		}
		closed[current.id] = true

		if current.id == goal {
			return reconstruct(g, cm, cameFrom, goal), nil
		}

		curLevel := g.Node(current.id).Coord.Level

		for _, adj := range g.Neighbors(current.id) {
			if closed[adj.To] {
				continue
			}

			tentative := current.g + cm.EdgeCost(g, adj.Cost, adj.To)
			verts := current.verts
			if g.Node(adj.To).Coord.Level != curLevel {
				verts++
			}

			improved := tentative < gScore[adj.To]-costEpsilon
			tiedButFlatter := math.Abs(tentative-gScore[adj.To]) <= costEpsilon &&
				verts < vertCount[adj.To]
			if !improved && !tiedButFlatter {
				continue
			}

			gScore[adj.To] = tentative
			vertCount[adj.To] = verts
			cameFrom[adj.To] = current.id

			heap.Push(open, &searchNode{
				id:    adj.To,
				g:     tentative,
				f:     tentative + heuristic(adj.To),
				verts: verts,
			})
		}
	}

	return Path{}, NoPathError(start, goal)
}

// reconstruct walks the parent chain back from the goal and assembles the
// path with its weighted cost, unweighted distance, and per-node planning
// assumptions.
func reconstruct(g *building.Graph, cm CostModel, cameFrom []building.NodeID, goal building.NodeID) Path {
	var reversed []building.NodeID
	for id := goal; id != -1; id = cameFrom[id] {
		reversed = append(reversed, id)
	}

	nodes := make([]building.NodeID, len(reversed))
	for i, id := range reversed {
		nodes[len(reversed)-1-i] = id
	}

	p := Path{
		Nodes:            nodes,
		AssumedIntensity: make(map[building.NodeID]float64, len(nodes)),
	}

	for i, id := range nodes {
		p.AssumedIntensity[id] = cm.IntensityAt(g, id)
		if i == 0 {
			continue
		}
		base := baseCost(g, nodes[i-1], id)
		p.Distance += base
		p.Cost += cm.EdgeCost(g, base, id)
	}
	return p
}

func baseCost(g *building.Graph, from, to building.NodeID) float64 {
	for _, adj := range g.Neighbors(from) {
		if adj.To == to {
			return adj.Cost
		}
	}
	return 0
}
