// Package client is the HTTP transport between the moodkeeper CLI and the
// server.
//
// HTTPClient covers the whole REST surface: user registration and login,
// capability flag reads and writes, journal, selfie and rating CRUD, the
// remote preprocessing and prediction endpoints, and the model documents
// used for local inference. It injects the bearer token on every call and
// maps non-2xx responses back to the sentinels in internal/common, so a
// 404 matches common.ErrNotFound with errors.Is on either side of the wire.
//
// Transport-level failures (connection refused, timeouts) are reported as
// ErrUnavailable.
package client
