// Package config loads runtime configuration for facegate.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables prefixed with FACEGATE_ (an optional .env file
//     is loaded into the environment by the binary beforehand).
//  4. Command-line flags.
//
// Supported flags
//
//	-s string   path of the encrypted store file
//	-k string   path of the key file
//	-d string   base URL of the landmark detector
//	-l string   log level (debug, info, warn, error)
//	-m string   listen address for the Prometheus endpoint (empty: off)
//
// # JSON schema
//
// Durations may be strings like "30s" or integer nanoseconds:
//
//	{
//	  "store_path": "user_identification.db",
//	  "key_path": "db_key.key",
//	  "detector_url": "http://127.0.0.1:8000",
//	  "detector_timeout": "30s",
//	  "match_threshold": 11.0,
//	  "token_ttl": "5m",
//	  "s3_bucket": "facegate"
//	}
//
// Losing the key file makes every record in the store unrecoverable; keep it
// backed up separately from the store. Setting a key passphrase replaces the
// key file with an argon2id-derived key and a salt file next to the store.
package config
