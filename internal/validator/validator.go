// Package validator decides whether two port data types can be wired
// together. Directly compatible pairs connect for free; otherwise a bounded
// depth-first search over the transformer catalog synthesizes a composite
// converter, scored for cost, length and lossiness. Results are cached with
// a TTL so newly registered transformers are picked up without a restart.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/transform"
	"github.com/vk/flowgrid/internal/typesys"
)

// MaxHops bounds the transformation path search depth.
const MaxHops = 3

// DefaultCacheTTL is how long a validation result stays cached.
const DefaultCacheTTL = 60 * time.Second

// Step is one hop of a compatibility path.
type Step struct {
	From        string
	To          string
	Transformer *transform.Transformer
}

// Result is the outcome of validating a (source, target) type pair.
type Result struct {
	CanConnect bool
	// Steps is empty for directly compatible pairs.
	Steps []Step
	// Chain applies the composed conversion. Nil when the value can be
	// passed through unchanged.
	Chain     transform.Chain
	TotalCost float64
	// Confidence is 1.0 for direct connections and decays with path length
	// and lossy steps, floored at 0.
	Confidence  float64
	Errors      []*model.Error
	Warnings    []string
	Suggestions []string
}

// Hops returns the number of transformation steps in the chosen path.
func (r *Result) Hops() int { return len(r.Steps) }

// Validator resolves type-to-type connectivity over a type registry and a
// transformer catalog. Safe for concurrent use.
type Validator struct {
	types   *typesys.Registry
	catalog *transform.Catalog
	cache   *resultCache
}

// New creates a validator with the default cache TTL.
func New(types *typesys.Registry, catalog *transform.Catalog) *Validator {
	return NewWithTTL(types, catalog, DefaultCacheTTL)
}

// NewWithTTL creates a validator with an explicit cache TTL. A zero TTL
// disables caching.
func NewWithTTL(types *typesys.Registry, catalog *transform.Catalog, ttl time.Duration) *Validator {
	return &Validator{
		types:   types,
		catalog: catalog,
		cache:   newResultCache(ttl),
	}
}

// Validate decides whether a value of sourceType can feed a port expecting
// targetType. The computation is idempotent and side-effect free, so a
// cache miss racing another goroutine simply computes redundantly.
func (v *Validator) Validate(sourceType, targetType string) *Result {
	if cached, ok := v.cache.get(sourceType, targetType); ok {
		return cached
	}

	res := v.compute(sourceType, targetType)
	v.cache.put(sourceType, targetType, res)
	return res
}

func (v *Validator) compute(sourceType, targetType string) *Result {
	// Unknown types fail with a code distinct from "no path found".
	for _, id := range []string{sourceType, targetType} {
		if _, ok := v.types.Lookup(id); !ok {
			return &Result{
				CanConnect: false,
				Errors: []*model.Error{
					model.NewError(model.CodeUnknownType, "", "data type %q is not registered", id),
				},
			}
		}
	}

	if v.directlyCompatible(sourceType, targetType) {
		return &Result{CanConnect: true, TotalCost: 0, Confidence: 1.0}
	}

	paths := v.findPaths(sourceType, targetType)
	if len(paths) == 0 {
		return &Result{
			CanConnect: false,
			Errors: []*model.Error{
				model.NewError(model.CodeNoPath, "",
					"no transformation path from %q to %q within %d hops", sourceType, targetType, MaxHops),
			},
			Suggestions: v.suggest(sourceType, targetType),
		}
	}

	best := pickBest(paths)
	res := &Result{
		CanConnect: true,
		Chain:      best,
		TotalCost:  best.Cost(),
		Confidence: confidence(best),
	}
	for _, t := range best {
		res.Steps = append(res.Steps, Step{From: t.From, To: t.To, Transformer: t})
	}
	res.Warnings = warnings(best)
	return res
}

// directlyCompatible covers identity, declared source-to-target
// compatibility, and the wildcard "any" type. Declared compatibility is
// directional, so the reverse direction goes through the transformer
// search.
func (v *Validator) directlyCompatible(source, target string) bool {
	if source == target {
		return true
	}
	if source == typesys.TypeAny || target == typesys.TypeAny {
		return true
	}
	return v.types.Compatible(source, target)
}

// findPaths enumerates every acyclic transformer path of at most MaxHops
// from source to target. A visited set per branch prevents revisiting a
// type within one path; distinct paths may still share types.
func (v *Validator) findPaths(source, target string) []transform.Chain {
	var paths []transform.Chain
	visited := map[string]bool{source: true}
	var current transform.Chain

	var walk func(from string)
	walk = func(from string) {
		if len(current) >= MaxHops {
			return
		}
		for _, t := range v.catalog.From(from) {
			if visited[t.To] {
				continue
			}
			current = append(current, t)
			if t.To == target {
				paths = append(paths, append(transform.Chain(nil), current...))
			} else {
				visited[t.To] = true
				walk(t.To)
				delete(visited, t.To)
			}
			current = current[:len(current)-1]
		}
	}
	walk(source)
	return paths
}

// score rates a path: cheaper and shorter is better, lossy halves the score.
func score(ch transform.Chain) float64 {
	s := 0.4/(1+ch.Cost()) + 0.4/(1+float64(len(ch)))
	if lossyCount(ch) > 0 {
		s *= 0.5
	}
	return s
}

// pickBest selects the highest-scoring path. Ties break on fewer hops, then
// lower total cost, then first transformer ID, so selection is fully
// deterministic.
func pickBest(paths []transform.Chain) transform.Chain {
	best := paths[0]
	for _, p := range paths[1:] {
		if better(p, best) {
			best = p
		}
	}
	return best
}

func better(a, b transform.Chain) bool {
	sa, sb := score(a), score(b)
	if sa != sb {
		return sa > sb
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	if a.Cost() != b.Cost() {
		return a.Cost() < b.Cost()
	}
	return a[0].ID < b[0].ID
}

func lossyCount(ch transform.Chain) int {
	n := 0
	for _, t := range ch {
		if t.Lossy {
			n++
		}
	}
	return n
}

// confidence decays with hop count and lossy steps, floored at 0. Direct
// connections never reach here; they are always 1.0.
func confidence(ch transform.Chain) float64 {
	hops := float64(len(ch))
	c := 1.0 - 0.2*hops
	if c < 0.3 {
		c = 0.3
	}
	c -= 0.3 * float64(lossyCount(ch))
	if c < 0 {
		c = 0
	}
	return c
}

func warnings(ch transform.Chain) []string {
	var out []string
	if len(ch) > 2 {
		out = append(out, fmt.Sprintf("conversion path is %d hops long and may be fragile", len(ch)))
	}
	for _, t := range ch {
		if t.Lossy {
			out = append(out, fmt.Sprintf("step %s -> %s is lossy and may drop information", t.From, t.To))
		}
		if t.Async {
			out = append(out, fmt.Sprintf("step %s -> %s is asynchronous and may add latency", t.From, t.To))
		}
	}
	return out
}

// suggest guides the workflow author toward an intermediate node when no
// path exists: types adjacent to both endpoints come first as bridge
// candidates, then the plain neighbor lists of each endpoint.
func (v *Validator) suggest(source, target string) []string {
	fromSource := v.neighbors(source, true)
	intoTarget := v.neighbors(target, false)

	var out []string
	for _, id := range sortedKeys(fromSource) {
		if intoTarget[id] {
			out = append(out, fmt.Sprintf("insert a node converting through %q: %s -> %s -> %s", id, source, id, target))
		}
	}
	if len(fromSource) > 0 {
		out = append(out, fmt.Sprintf("%q converts directly to: %s", source, strings.Join(sortedKeys(fromSource), ", ")))
	}
	if len(intoTarget) > 0 {
		out = append(out, fmt.Sprintf("%q accepts directly from: %s", target, strings.Join(sortedKeys(intoTarget), ", ")))
	}
	return out
}

// neighbors returns the set of types one hop away from id, either outgoing
// (transformers from id plus declared compatibility) or incoming.
func (v *Validator) neighbors(id string, outgoing bool) map[string]bool {
	set := make(map[string]bool)
	if outgoing {
		for _, t := range v.catalog.From(id) {
			set[t.To] = true
		}
	} else {
		for _, t := range v.catalog.To(id) {
			set[t.From] = true
		}
	}
	for _, other := range v.types.IDs() {
		if other == id || other == typesys.TypeAny {
			continue
		}
		if outgoing && v.types.Compatible(id, other) {
			set[other] = true
		}
		if !outgoing && v.types.Compatible(other, id) {
			set[other] = true
		}
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
