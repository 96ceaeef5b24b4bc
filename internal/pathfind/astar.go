// Package pathfind implements a bounded, deterministic A* search.
package pathfind

import "container/heap"

// MaxIters is the default expansion cap.
const MaxIters = 100_000

// Result is a found path with its total cost.
type Result[N comparable] struct {
	Path []N
	Cost float32
}

// Search describes one A* query. Neighbors must yield successors in a fixed
// order so ties resolve identically between runs.
type Search[N comparable] struct {
	Start     N
	IsGoal    func(N) bool
	Neighbors func(n N, yield func(next N, cost float32))
	Heuristic func(N) float32
	MaxIters  int
}

type openItem[N comparable] struct {
	node N
	f    float32
	seq  int
}

type openSet[N comparable] []openItem[N]

func (o openSet[N]) Len() int { return len(o) }
func (o openSet[N]) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet[N]) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet[N]) Push(x any) { *o = append(*o, x.(openItem[N])) }
func (o *openSet[N]) Pop() any {
	old := *o
	it := old[len(old)-1]
	*o = old[:len(old)-1]
	return it
}

// Run executes the search. ok is false when the open set empties or the
// expansion cap is hit before reaching a goal.
func (s Search[N]) Run() (Result[N], bool) {
	limit := s.MaxIters
	if limit <= 0 {
		limit = MaxIters
	}

	g := map[N]float32{s.Start: 0}
	came := map[N]N{}
	closed := map[N]bool{}

	open := &openSet[N]{}
	seq := 0
	heap.Push(open, openItem[N]{node: s.Start, f: s.Heuristic(s.Start), seq: seq})

	for iters := 0; open.Len() > 0 && iters < limit; iters++ {
		cur := heap.Pop(open).(openItem[N]).node
		if closed[cur] {
			continue
		}
		if s.IsGoal(cur) {
			return Result[N]{Path: reconstruct(came, s.Start, cur), Cost: g[cur]}, true
		}
		closed[cur] = true

		gc := g[cur]
		s.Neighbors(cur, func(next N, cost float32) {
			if closed[next] {
				return
			}
			ng := gc + cost
			if old, seen := g[next]; seen && ng >= old {
				return
			}
			g[next] = ng
			came[next] = cur
			seq++
			heap.Push(open, openItem[N]{node: next, f: ng + s.Heuristic(next), seq: seq})
		})
	}
	return Result[N]{}, false
}

func reconstruct[N comparable](came map[N]N, start, end N) []N {
	path := []N{end}
	for cur := end; cur != start; {
		cur = came[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
