package deadcode

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// ComputeReachable runs a breadth-first traversal from the entry points over
// outgoing references. Each symbol is visited at most once, so cycles
// terminate.
func ComputeReachable(g *Graph) *roaring.Bitmap {
	reachable := roaring.New()
	queue := make([]SymbolID, 0, len(g.EntryPoints))

	for id := range g.EntryPoints {
		if !reachable.CheckedAdd(uint32(id)) {
			continue
		}
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Outgoing(id) {
			if reachable.CheckedAdd(uint32(next)) {
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

// DeadPartition splits the unreachable symbols into direct and transitive
// findings.
type DeadPartition struct {
	// Dead with no dead referencers. The roots of each dead subgraph.
	Direct []SymbolID
	// Dead only because every referencer is dead.
	Transitive []TransitiveDead
}

// TransitiveDead is one transitively dead symbol and the dead referencer
// chain leading to it.
type TransitiveDead struct {
	ID SymbolID
	// Path of dead symbols from a direct root to this one, nearest first.
	Chain []SymbolID
}

// PartitionDead classifies every unreachable symbol. A symbol with no
// incoming references from other unreachable symbols is directly dead; the
// rest are transitively dead, with a chain bounded by maxDepth. Findings are
// ordered by file path, then line.
func PartitionDead(g *Graph, reachable *roaring.Bitmap, maxDepth int) DeadPartition {
	dead := roaring.New()
	for id, sym := range g.Symbols {
		if sym.Kind == KindModule {
			continue
		}
		if !reachable.Contains(uint32(id)) {
			dead.Add(uint32(id))
		}
	}

	var p DeadPartition
	it := dead.Iterator()
	for it.HasNext() {
		id := SymbolID(it.Next())
		if !hasDeadReferencer(g, dead, id) {
			p.Direct = append(p.Direct, id)
		}
	}

	// Walk forward from the direct roots through the dead subgraph,
	// recording the shortest referencer chain to each transitive symbol.
	chains := make(map[SymbolID][]SymbolID)
	queue := make([]SymbolID, len(p.Direct))
	copy(queue, p.Direct)
	seen := roaring.New()
	for _, id := range p.Direct {
		seen.Add(uint32(id))
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		chain := chains[id]
		if maxDepth > 0 && len(chain) >= maxDepth {
			continue
		}
		for _, next := range g.Outgoing(id) {
			if !dead.Contains(uint32(next)) || !seen.CheckedAdd(uint32(next)) {
				continue
			}
			nextChain := make([]SymbolID, 0, len(chain)+1)
			nextChain = append(nextChain, chain...)
			nextChain = append(nextChain, id)
			chains[next] = nextChain
			queue = append(queue, next)
		}
	}

	it = dead.Iterator()
	for it.HasNext() {
		id := SymbolID(it.Next())
		if chain, ok := chains[id]; ok && len(chain) > 0 {
			p.Transitive = append(p.Transitive, TransitiveDead{ID: id, Chain: chain})
			continue
		}
		// Dead cycles have no direct root: every member has a dead
		// referencer, and the chain walk never reaches them. Report them
		// as direct findings.
		if !seen.Contains(uint32(id)) {
			p.Direct = append(p.Direct, id)
		}
	}

	sortByLocation(g, p.Direct)
	sort.SliceStable(p.Transitive, func(i, j int) bool {
		return locationLess(g, p.Transitive[i].ID, p.Transitive[j].ID)
	})
	return p
}

// hasDeadReferencer reports whether any incoming reference originates from
// another dead symbol. Self references do not count.
func hasDeadReferencer(g *Graph, dead *roaring.Bitmap, id SymbolID) bool {
	for _, from := range g.Incoming(id) {
		if from != id && dead.Contains(uint32(from)) {
			return true
		}
	}
	return false
}

func sortByLocation(g *Graph, ids []SymbolID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return locationLess(g, ids[i], ids[j])
	})
}

func locationLess(g *Graph, a, b SymbolID) bool {
	sa, sb := g.Symbols[a], g.Symbols[b]
	if sa == nil || sb == nil {
		return a < b
	}
	if sa.Location.File != sb.Location.File {
		return sa.Location.File < sb.Location.File
	}
	if sa.Location.Line != sb.Location.Line {
		return sa.Location.Line < sb.Location.Line
	}
	return sa.Location.Column < sb.Location.Column
}
