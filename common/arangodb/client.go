package arangodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

var ErrNotInitialized = errors.New("database not initialized, call EnsureDatabase first")

// Client is a read-only view over the code and knowledge graphs. Every query aggregates on the
// server; no documents are written.
type Client interface {
	EnsureDatabase(ctx context.Context) error

	// Knowledge graph
	CountDocuments(ctx context.Context, collection string) (int64, error)
	CountMatching(ctx context.Context, collection, field string, value any) (int64, error)

	// Code graph, scoped by the workspace attribute on function nodes
	ModuleSizes(ctx context.Context, workspace string) ([]ModuleSize, error)
	ModuleDependencies(ctx context.Context, workspace string) ([]ModuleDependency, error)
	CallSplit(ctx context.Context, workspace string) (CallSplit, error)
	FunctionStats(ctx context.Context, workspace string) (FunctionStats, error)

	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	return &client{
		conn:         conn,
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}, nil
}

func (c *client) Close() error {
	return nil
}

// EnsureDatabase opens the configured database. Unlike ingestion tooling this never creates
// it: a missing graph means the collaborator is not provisioned.
func (c *client) EnsureDatabase(ctx context.Context) error {
	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("arangodb database %q does not exist", c.cfg.Database)
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	slog.InfoContext(ctx, "arangodb database opened", "database", c.cfg.Database)
	return nil
}

func (c *client) CountDocuments(ctx context.Context, collection string) (int64, error) {
	rows, err := queryAll[int64](ctx, c.db, `RETURN LENGTH(@@col)`, map[string]any{"@col": collection})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return firstOrZero(rows), nil
}

func (c *client) CountMatching(ctx context.Context, collection, field string, value any) (int64, error) {
	query := `
		FOR d IN @@col
			FILTER d[@field] == @value
			COLLECT WITH COUNT INTO n
			RETURN n
	`
	rows, err := queryAll[int64](ctx, c.db, query, map[string]any{
		"@col":  collection,
		"field": field,
		"value": value,
	})
	if err != nil {
		return 0, fmt.Errorf("count %s where %s: %w", collection, field, err)
	}
	return firstOrZero(rows), nil
}

func (c *client) ModuleSizes(ctx context.Context, workspace string) ([]ModuleSize, error) {
	query := `
		FOR f IN functions
			FILTER f.workspace == @workspace
			COLLECT module = f.namespace WITH COUNT INTO n
			RETURN { module: module, functions: n }
	`
	return queryAll[ModuleSize](ctx, c.db, query, map[string]any{"workspace": workspace})
}

func (c *client) ModuleDependencies(ctx context.Context, workspace string) ([]ModuleDependency, error) {
	query := `
		FOR e IN calls
			LET a = DOCUMENT(e._from)
			LET b = DOCUMENT(e._to)
			FILTER a != null AND b != null
			FILTER a.workspace == @workspace AND b.workspace == @workspace
			FILTER a.namespace != b.namespace
			COLLECT from = a.namespace, to = b.namespace WITH COUNT INTO n
			RETURN { from: from, to: to, calls: n }
	`
	return queryAll[ModuleDependency](ctx, c.db, query, map[string]any{"workspace": workspace})
}

func (c *client) CallSplit(ctx context.Context, workspace string) (CallSplit, error) {
	query := `
		FOR e IN calls
			LET a = DOCUMENT(e._from)
			LET b = DOCUMENT(e._to)
			FILTER a != null AND b != null
			FILTER a.workspace == @workspace AND b.workspace == @workspace
			COLLECT AGGREGATE
				intra = SUM(a.namespace == b.namespace ? 1 : 0),
				inter = SUM(a.namespace != b.namespace ? 1 : 0)
			RETURN { intra: intra, inter: inter }
	`
	rows, err := queryAll[CallSplit](ctx, c.db, query, map[string]any{"workspace": workspace})
	if err != nil {
		return CallSplit{}, err
	}
	if len(rows) == 0 {
		return CallSplit{}, nil
	}
	return rows[0], nil
}

func (c *client) FunctionStats(ctx context.Context, workspace string) (FunctionStats, error) {
	query := `
		FOR f IN functions
			FILTER f.workspace == @workspace
			COLLECT AGGREGATE
				total = COUNT(1),
				documented = SUM(f.doc != null AND f.doc != "" ? 1 : 0),
				measured = SUM(IS_NUMBER(f.complexity) ? 1 : 0),
				avgComplexity = AVERAGE(f.complexity),
				maxComplexity = MAX(f.complexity)
			RETURN {
				total: total,
				documented: documented,
				measured: measured,
				average_complexity: avgComplexity || 0,
				max_complexity: maxComplexity || 0
			}
	`
	rows, err := queryAll[FunctionStats](ctx, c.db, query, map[string]any{"workspace": workspace})
	if err != nil {
		return FunctionStats{}, err
	}
	if len(rows) == 0 {
		return FunctionStats{}, nil
	}
	return rows[0], nil
}

func queryAll[T any](ctx context.Context, db arangodb.Database, query string, bindVars map[string]any) ([]T, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	cursor, err := db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer cursor.Close()

	var results []T
	for cursor.HasMore() {
		var doc T
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		results = append(results, doc)
	}

	slog.DebugContext(ctx, "arangodb query completed",
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}

func firstOrZero(rows []int64) int64 {
	if len(rows) == 0 {
		return 0
	}
	return rows[0]
}
