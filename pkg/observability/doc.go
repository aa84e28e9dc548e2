/*
Package observability provides tools for monitoring the Stepflow engine.

It includes Prometheus instruments exposed as lifecycle hooks, an HTTP
middleware recording request metrics by route pattern, and structured logging
hooks for auditing state transitions.
*/
package observability
