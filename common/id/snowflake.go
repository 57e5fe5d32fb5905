package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the process-wide snowflake node. The server uses node 1 and the
// reconciler worker node 2 so ids never collide between binaries.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time-ordered int64 id. Init must have been called.
func New() int64 {
	return node.Generate().Int64()
}

// String formats an id the way it is written into cookies and query strings.
func String(v int64) string {
	return snowflake.ID(v).String()
}

// Parse is the inverse of String.
func Parse(s string) (int64, error) {
	parsed, err := snowflake.ParseString(s)
	if err != nil {
		return 0, err
	}
	return parsed.Int64(), nil
}
