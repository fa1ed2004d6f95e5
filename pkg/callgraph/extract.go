package callgraph

import (
	"fmt"
	"math"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/ir"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// Unreachable is the weight of a block that cannot be reached from the entry
const Unreachable = -1

// extracted is one call found in a body, before it is numbered and registered
type extracted struct {
	call   ir.Call
	weight int
}

// BlockWeights returns, for every block, the minimum number of branch blocks
// left on any path from block 0 to it. Leaving a branch block costs 1 and any
// other edge is free, so a 0-1 breadth-first search settles one weight level
// at a time. A loop body counts its guard once since the back edge can only
// raise the weight. Blocks that cannot be reached get Unreachable.
func BlockWeights(body *ir.Body) []int {
	n := len(body.Blocks)
	dist := make([]int, n)
	for i := range dist {
		dist[i] = math.MaxInt
	}
	if n == 0 {
		return dist
	}

	dist[0] = 0
	level := []int{0}
	for w := 0; len(level) > 0; w++ {
		var next []int
		for i := 0; i < len(level); i++ {
			b := level[i]
			if dist[b] != w {
				continue // settled at a lower level
			}
			cost := 0
			if body.Blocks[b].Branch {
				cost = 1
			}
			for _, s := range body.Blocks[b].Succs {
				if w+cost >= dist[s] {
					continue
				}
				dist[s] = w + cost
				if cost == 0 {
					level = append(level, s)
				} else {
					next = append(next, s)
				}
			}
		}
		level = next
	}

	for i, d := range dist {
		if d == math.MaxInt {
			dist[i] = Unreachable
		}
	}
	return dist
}

// ValidateBody checks a body before extraction. Only external instances may
// lack blocks, and every call must name the right number of targets for its kind.
func ValidateBody(sym ir.Symbol, body *ir.Body) error {
	if body == nil || len(body.Blocks) == 0 {
		if sym.Kind == models.KindExternal {
			return nil
		}
		return fmt.Errorf("%w: %s has no blocks", ir.ErrMalformedBody, sym.Name)
	}
	if err := body.Validate(); err != nil {
		return fmt.Errorf("%s: %w", sym.Name, err)
	}
	for i, blk := range body.Blocks {
		for _, c := range blk.Calls {
			if c.Kind != models.CallDynamic && len(c.Targets) != 1 {
				return fmt.Errorf("%w: %s block %d: %s call with %d targets", ir.ErrMalformedBody, sym.Name, i, c.Kind, len(c.Targets))
			}
		}
	}
	return nil
}

// extractCalls returns the calls of a validated body with their weights, in
// block order, and the number of calls dropped because their block is unreachable.
func extractCalls(body *ir.Body) ([]extracted, int) {
	weights := BlockWeights(body)
	var out []extracted
	dropped := 0
	for i, blk := range body.Blocks {
		if weights[i] == Unreachable {
			dropped += len(blk.Calls)
			continue
		}
		for _, c := range blk.Calls {
			out = append(out, extracted{call: c, weight: weights[i]})
		}
	}
	return out, dropped
}
