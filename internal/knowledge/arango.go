package knowledge

import (
	"context"

	"basegraph.app/insight/common/arangodb"
)

var (
	DefaultNodeCollections = []string{"concepts", "facts"}
	DefaultEdgeCollections = []string{"relations"}
)

const (
	patternCollection  = "patterns"
	patternActiveField = "active"
)

// ArangoGraph counts knowledge-graph documents stored in ArangoDB.
type ArangoGraph struct {
	client      arangodb.Client
	collections []string
}

func NewArangoGraph(client arangodb.Client) *ArangoGraph {
	collections := append([]string{}, DefaultNodeCollections...)
	collections = append(collections, DefaultEdgeCollections...)
	return &ArangoGraph{client: client, collections: collections}
}

// GraphSize is the total number of nodes and edges.
func (g *ArangoGraph) GraphSize(ctx context.Context) (int64, error) {
	var total int64
	for _, c := range g.collections {
		n, err := g.client.CountDocuments(ctx, c)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (g *ArangoGraph) ActivePatterns(ctx context.Context) (int64, error) {
	return g.client.CountMatching(ctx, patternCollection, patternActiveField, true)
}
