package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates sortable 63-bit ids, safe across instances as long as
// each instance is configured with a distinct node number.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator for the given node number (0-1023).
func NewSnowflake(nodeNumber int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeNumber)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
