package secrets

import "os"

// Credential names read by EnvLoader in the serve command.
const (
	StripeSecretKey = "STRIPE_SECRET_KEY"
	MCPAPIKey       = "RESCUEDESK_MCP_API_KEY"
)

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are silently omitted from the result map.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
