package instance

import "os"

// ID identifies the running process in logs: DYNO, then WORKER_ID, then the hostname.
func ID() string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
