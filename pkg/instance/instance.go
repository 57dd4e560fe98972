// Package instance names the running worker process for log correlation.
package instance

import "os"

// ID returns the worker identifier. WORKER_ID wins when set, then the
// hostname, then a fixed default.
func ID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
