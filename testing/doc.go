// Package testing provides test helpers for code built on tether.
//
// Key utilities:
//   - StartEmbeddedNATS: in-process NATS server with JetStream
//   - CreateKV: in-memory KV bucket for key-set sources
//   - NewTestLogger: Logger writing to testing.TB
//
// Example usage:
//
//	import (
//	    "testing"
//	    tethertest "github.com/arloliu/tether/testing"
//	)
//
//	func TestMyWatcher(t *testing.T) {
//	    _, nc := tethertest.StartEmbeddedNATS(t)
//	    kv := tethertest.CreateKV(t, nc, "jobs")
//	    // ...
//	}
package testing
