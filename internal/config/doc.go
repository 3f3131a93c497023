// Package config provides configuration loading for waypoint tools.
//
// Configuration is layered, later layers winning:
//
//  1. built-in defaults
//  2. waypoint.toml
//  3. WAYPOINT_ environment variables
//
// Environment variables name a section and a key separated by the first
// underscore: WAYPOINT_HISTORY_MODE sets history.mode and
// WAYPOINT_ROUTES_S3_BUCKET sets routes.s3_bucket.
//
// # Configuration File Structure
//
//	[history]
//	mode = "hash"        # "web" or "hash"
//	base = ""
//	initial = "/"
//
//	[routes]
//	file = "routes.yaml"
//	s3_bucket = ""
//	s3_key = ""
//	s3_region = "us-east-1"
//	s3_endpoint = ""
//
//	[router]
//	max_redirects = 10
//
//	[log]
//	level = "info"       # debug, info, warn, error
//	format = "text"      # text or json
//
//	[metrics]
//	enabled = true
//	namespace = "waypoint"
//
//	[tracing]
//	tracer = "waypoint"
//
//	[inspect]
//	addr = "localhost:7070"
//	shutdown_timeout = "5s"
package config
