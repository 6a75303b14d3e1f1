// Package metrics holds the service counters and the server exposing them.
package metrics
