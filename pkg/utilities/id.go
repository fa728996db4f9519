package utilities

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// NewRequestID returns a KSUID string used to correlate log lines of a
// single request.
func NewRequestID() string {
	return ksuid.New().String()
}

// nodeIDFromEnv reads SNOWFLAKE_NODE, defaulting to 1 when unset or invalid.
func nodeIDFromEnv() int64 {
	v := os.Getenv("SNOWFLAKE_NODE")
	if v == "" {
		return 1
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 1
	}
	return id
}

// NewID returns the next snowflake id of the process-wide node. All ids
// come from one node so two calls in the same millisecond never collide.
func NewID() (int64, error) {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeIDFromEnv())
	})
	if nodeErr != nil {
		return 0, fmt.Errorf("snowflake node: %w", nodeErr)
	}
	return node.Generate().Int64(), nil
}
