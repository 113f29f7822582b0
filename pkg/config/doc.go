// Package config provides application configuration management.
//
// # Overview
//
// Configuration comes from two sources: environment variables for
// deployment settings, and an optional YAML policy file for the
// operator-tunable reputation policy (point values, tier thresholds,
// edit quotas). The policy file is watched and hot-reloaded at runtime.
//
// # Environment Variables
//
// Server settings:
//
//	APIDOCK_HOST="0.0.0.0"
//	APIDOCK_PORT="8080"
//	APIDOCK_HEALTH_PORT="9090"
//	APIDOCK_READ_TIMEOUT="15s"
//	APIDOCK_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	APIDOCK_DB_DRIVER="sqlite"  # postgres, sqlite
//	APIDOCK_DB_DSN="apidock.db"
//	APIDOCK_DB_MAX_OPEN_CONNS="25"
//
// Cache settings:
//
//	APIDOCK_REDIS_ENABLED="true"
//	APIDOCK_REDIS_ADDR="localhost:6379"
//	APIDOCK_SCORE_CACHE_TTL="5m"
//	APIDOCK_L1_CACHE_SIZE="1024"
//
// Reputation settings:
//
//	APIDOCK_POLICY_FILE="/etc/apidock/policy.yaml"
//	APIDOCK_RECONCILE_SCHEDULE="0 3 * * *"
//
// Notification settings:
//
//	APIDOCK_WEBHOOK_URL="https://hooks.example.com/apidock"
//	APIDOCK_WEBHOOK_SECRET="..."
//
// Observability settings:
//
//	APIDOCK_LOG_LEVEL="info"  # debug, info, warn, error
//	APIDOCK_METRICS_ENABLED="true"
//	APIDOCK_OTEL_ENABLED="true"
//	APIDOCK_OTEL_ENDPOINT="otel-collector:4317"
//
// # Policy File
//
// Any section left out of the policy file falls back to the built-in
// defaults:
//
//	points:
//	  wiki_edit: 1
//	  api_approved: 5
//	thresholds:
//	  - tier: bronze
//	    min_score: 0
//	  - tier: silver
//	    min_score: 50
//	  - tier: gold
//	    min_score: 200
//	quotas:
//	  bronze:
//	    max_chars: 300
//	    max_fraction: 0.30
//	  admin:
//	    max_chars: -1   # unlimited
//	    max_fraction: 1.0
package config
