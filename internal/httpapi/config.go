package httpapi

import "time"

// checkTimeout bounds a /check request. Zero means no additional timeout
// beyond server/connection timeouts.
var checkTimeout time.Duration

// SetCheckTimeout sets the /check timeout (<= 0 disables).
func SetCheckTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	checkTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// swaggerEnabled mounts the swagger UI under /swagger/.
var swaggerEnabled bool

// SetSwaggerEnabled toggles the swagger UI.
func SetSwaggerEnabled(v bool) { swaggerEnabled = v }
