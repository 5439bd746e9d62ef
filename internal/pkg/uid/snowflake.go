package uid

import (
	"crypto/sha256"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-sortable int64 IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator whose node number is derived from a
// stable machine identity, so replicas on different hosts do not collide.
func NewSnowflake() (*Snowflake, error) {
	node, err := snowflake.NewNode(stableNodeNumber())
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func stableNodeNumber() int64 {
	src := "localhost"
	if b, err := os.ReadFile("/etc/machine-id"); err == nil && strings.TrimSpace(string(b)) != "" {
		src = strings.TrimSpace(string(b))
	} else if h, err := os.Hostname(); err == nil && strings.TrimSpace(h) != "" {
		src = strings.TrimSpace(h)
	}

	sum := sha256.Sum256([]byte(src))
	// snowflake node numbers are 10 bits
	return int64(sum[0])<<2 | int64(sum[1])>>6
}
