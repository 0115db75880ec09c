package store

import "errors"

// ErrKeyedQueryUnsupported reports that the identity-keyed instance query
// could not run against the current schema (legacy deployments predating the
// key columns). Callers fall back to a trip-wide scan and filter in memory.
var ErrKeyedQueryUnsupported = errors.New("keyed instance query unsupported by schema")
