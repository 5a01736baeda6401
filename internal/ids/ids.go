package ids

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

func New() string {
	return ksuid.New().String()
}

func Valid(id string) bool {
	_, err := ksuid.Parse(id)
	return err == nil
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
	nodeID   int64 = 1
)

// SetNode must run before the first OrderReference call to take effect.
func SetNode(id int64) {
	nodeID = id
}

// OrderReference returns a numeric, time-ordered reference customers can quote.
func OrderReference() (string, error) {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	if nodeErr != nil {
		return "", fmt.Errorf("snowflake node %d: %w", nodeID, nodeErr)
	}
	return node.Generate().String(), nil
}
