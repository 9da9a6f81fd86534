// Package server exposes the authorizer over HTTP to the calling gateway.
//
// The single business endpoint, POST /v1/authorize, accepts a request
// payload carrying raw headers and the targeted resource and always
// responds 200 with a well-formed policy document: the authorizer's
// fail-closed contract means there is no error branch to surface. Health
// probes and the Prometheus metrics listener are served alongside.
package server
