package source

import (
	"context"
	"fmt"
	"sort"

	"basegraph.app/insight/common/arangodb"
	"basegraph.app/insight/internal/model"
)

// DefaultOversizedModule is the function count above which a module counts as oversized.
const DefaultOversizedModule = 200

// ArangoStructure derives structure signals from the code graph.
type ArangoStructure struct {
	client            arangodb.Client
	oversizedFunction int
}

func NewArangoStructure(client arangodb.Client) *ArangoStructure {
	return &ArangoStructure{client: client, oversizedFunction: DefaultOversizedModule}
}

func (a *ArangoStructure) Structure(ctx context.Context, workspaceID string) (model.StructureSignals, error) {
	sizes, err := a.client.ModuleSizes(ctx, workspaceID)
	if err != nil {
		return model.StructureSignals{}, fmt.Errorf("%w: module sizes: %v", model.ErrCollaboratorUnavailable, err)
	}
	deps, err := a.client.ModuleDependencies(ctx, workspaceID)
	if err != nil {
		return model.StructureSignals{}, fmt.Errorf("%w: module dependencies: %v", model.ErrCollaboratorUnavailable, err)
	}
	split, err := a.client.CallSplit(ctx, workspaceID)
	if err != nil {
		return model.StructureSignals{}, fmt.Errorf("%w: call split: %v", model.ErrCollaboratorUnavailable, err)
	}
	stats, err := a.client.FunctionStats(ctx, workspaceID)
	if err != nil {
		return model.StructureSignals{}, fmt.Errorf("%w: function stats: %v", model.ErrCollaboratorUnavailable, err)
	}
	if len(sizes) == 0 {
		return model.StructureSignals{}, fmt.Errorf("%w: workspace %s has no indexed modules", model.ErrCollaboratorUnavailable, workspaceID)
	}

	return BuildStructure(sizes, deps, split, stats, a.oversizedFunction), nil
}

// BuildStructure folds code-graph aggregates into structure signals.
func BuildStructure(sizes []arangodb.ModuleSize, deps []arangodb.ModuleDependency, split arangodb.CallSplit, stats arangodb.FunctionStats, oversized int) model.StructureSignals {
	signals := model.StructureSignals{
		ModuleCount:        len(sizes),
		IntraModuleEdges:   split.Intra,
		InterModuleEdges:   split.Inter,
		CyclicDependencies: countCycles(deps),
		AverageComplexity:  stats.AverageComplexity,
		MaxComplexity:      stats.MaxComplexity,
	}

	for _, s := range sizes {
		if s.Functions > oversized {
			signals.OversizedModules++
		}
	}

	fanOut := make(map[string]map[string]struct{})
	for _, d := range deps {
		if fanOut[d.From] == nil {
			fanOut[d.From] = make(map[string]struct{})
		}
		fanOut[d.From][d.To] = struct{}{}
	}
	total := 0
	for _, targets := range fanOut {
		total += len(targets)
	}
	if len(sizes) > 0 {
		signals.AverageFanOut = float64(total) / float64(len(sizes))
	}

	if stats.Total > 0 {
		signals.DocumentedFunctions = float64(stats.Documented) / float64(stats.Total)
	}
	return signals
}

// countCycles returns the number of strongly connected components with more than one module.
func countCycles(deps []arangodb.ModuleDependency) int {
	adj := make(map[string][]string)
	for _, d := range deps {
		adj[d.From] = append(adj[d.From], d.To)
		if _, ok := adj[d.To]; !ok {
			adj[d.To] = nil
		}
	}
	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	cycles := 0

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			size := 0
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				size++
				if w == v {
					break
				}
			}
			if size > 1 {
				cycles++
			}
		}
	}

	for _, n := range nodes {
		if _, seen := indices[n]; !seen {
			strongConnect(n)
		}
	}
	return cycles
}
