package config

import "log"

// MustNonEmpty aborts startup when a required env value is absent.
func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("required environment variable %s is not set", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	MustNonEmpty(string(value), envName)
}
