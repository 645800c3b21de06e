// Package env holds the one environment lookup helper used outside
// envconfig-managed structs.
package env

import "os"

// Get reads an environment variable, treating empty as unset.
func Get(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
