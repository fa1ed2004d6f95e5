package callgraph

import (
	"container/heap"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

// Query names find-callers targets either by display path or by identity hash
type Query struct {
	Text   string
	ByHash bool
}

// Caller is one transitive caller of a query's targets
type Caller struct {
	ID     models.ID
	Weight int         // minimal accumulated weight to the nearest target
	Path   []models.ID // witness path from the caller to a target, both included
}

// Result answers one query. Targets is empty when nothing matched.
type Result struct {
	Query   Query
	Targets []models.ID
	Callers []Caller
}

// Found reports whether the query matched any node
func (r *Result) Found() bool {
	return len(r.Targets) > 0
}

// Ambiguous reports whether a path query matched more than one node
func (r *Result) Ambiguous() bool {
	return len(r.Targets) > 1
}

// Resolve returns the nodes a query refers to, in display order
func (g *Graph) Resolve(q Query) []models.ID {
	var matched []*models.Instance
	if q.ByHash {
		if inst, ok := g.index.Lookup(q.Text); ok {
			matched = append(matched, inst)
		}
	} else {
		matched = g.index.Match(q.Text)
	}
	ids := make([]models.ID, len(matched))
	for i, inst := range matched {
		ids[i] = inst.ID
	}
	return ids
}

// FindCallers computes every instance that reaches one of the query's
// targets, with the minimal accumulated edge weight and a witness path. The
// targets themselves are not reported as callers.
func (g *Graph) FindCallers(q Query) *Result {
	res := &Result{Query: q, Targets: g.Resolve(q)}
	if len(res.Targets) == 0 {
		return res
	}

	dist := make(map[models.ID]int)
	next := make(map[models.ID]models.ID) // hop toward the target
	isTarget := make(map[models.ID]bool, len(res.Targets))

	pq := &distQueue{}
	for _, t := range res.Targets {
		isTarget[t] = true
		dist[t] = 0
		heap.Push(pq, distItem{id: t})
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distItem)
		if cur.weight > dist[cur.id] {
			continue
		}
		for _, e := range g.Incoming(cur.id) {
			w := cur.weight + e.Weight
			if old, seen := dist[e.Caller]; seen && w >= old {
				continue
			}
			dist[e.Caller] = w
			next[e.Caller] = cur.id
			heap.Push(pq, distItem{id: e.Caller, weight: w})
		}
	}

	for id, w := range dist {
		if isTarget[id] {
			continue
		}
		res.Callers = append(res.Callers, Caller{ID: id, Weight: w, Path: witness(id, next, isTarget)})
	}
	sort.Slice(res.Callers, func(i, j int) bool {
		a, b := res.Callers[i], res.Callers[j]
		if na, nb := g.name(a.ID), g.name(b.ID); na != nb {
			return na < nb
		}
		return a.ID.Less(b.ID)
	})
	return res
}

func witness(from models.ID, next map[models.ID]models.ID, isTarget map[models.ID]bool) []models.ID {
	path := []models.ID{from}
	for cur := from; !isTarget[cur]; {
		hop, ok := next[cur]
		if !ok {
			break
		}
		path = append(path, hop)
		cur = hop
	}
	return path
}

// FindCallersAll runs independent queries in parallel. Results keep the
// order of queries.
func (g *Graph) FindCallersAll(queries []Query, workers int) []*Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.reverseOnce.Do(g.buildReverse)

	results := make([]*Result, len(queries))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, q := range queries {
		eg.Go(func() error {
			results[i] = g.FindCallers(q)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// QueriesFrom builds queries from configured path or hash targets. Blank and
// repeated targets are dropped.
func QueriesFrom(paths, hashes []string) []Query {
	queries := make([]Query, 0, len(paths)+len(hashes))
	for _, p := range utils.UniqueStrings(paths) {
		queries = append(queries, Query{Text: p})
	}
	for _, h := range utils.UniqueStrings(hashes) {
		queries = append(queries, Query{Text: h, ByHash: true})
	}
	return queries
}

// distItem and distQueue implement the Dijkstra priority queue. Ties on weight
// are broken by identity so the visiting order is fixed.
type distItem struct {
	id     models.ID
	weight int
}

type distQueue []distItem

func (q distQueue) Len() int { return len(q) }
func (q distQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].id.Less(q[j].id)
}
func (q distQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any)   { *q = append(*q, x.(distItem)) }
func (q *distQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
