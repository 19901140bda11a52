// Package httputils provides utilities for HTTP requests.
package httputils

import (
	"context"

	"github.com/gin-gonic/gin"
)

type machineContextKey struct{}

// UnknownMachine names a client that sent no User-Agent.
const UnknownMachine = "unknown"

// MachineMiddleware puts the User-Agent header into the request context.
func MachineMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithMachineName(c.Request.Context(), c.GetHeader("User-Agent")))
		c.Next()
	}
}

// WithMachineName returns a context carrying the machine name.
func WithMachineName(ctx context.Context, machine string) context.Context {
	return context.WithValue(ctx, machineContextKey{}, machine)
}

// GetMachineName returns the machine name from the context, or UnknownMachine.
func GetMachineName(ctx context.Context) string {
	if machine, ok := ctx.Value(machineContextKey{}).(string); ok && machine != "" {
		return machine
	}

	return UnknownMachine
}
