// Package cli provides the operations of the admin CLI.
package cli

import (
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/performance"
)

// Context is the context for the CLI.
type Context struct {
	moodle     *moodle.Client
	aggregator *performance.Aggregator
}

// NewContext creates a new Context that runs at most concurrency attempt lookups at a time.
func NewContext(client *moodle.Client, concurrency int) *Context {
	return &Context{
		moodle:     client,
		aggregator: performance.NewAggregator(client, concurrency),
	}
}
