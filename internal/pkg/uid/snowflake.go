package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates time-ordered 63-bit numeric IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node number. Node numbers
// must be unique per running instance within a deployment.
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
