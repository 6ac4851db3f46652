package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Node ids per process role. Insight ids embed a snowflake, so two processes sharing a
// node id could mint the same insight id in the same millisecond.
const (
	NodeTests  int64 = 0
	NodeServer int64 = 1
	NodeWorker int64 = 2
	NodeCLI    int64 = 3
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets the process node id. Only the first call has any effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time-ordered id, strictly increasing within the process.
// Falls back to NodeTests when Init was never called.
func New() int64 {
	_ = Init(NodeTests)
	return node.Generate().Int64()
}
