// Package server implements the optional HTTP API for monitoring the speech
// generation tool. It exposes health, status, and Prometheus metrics
// endpoints.
package server
