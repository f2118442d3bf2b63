package helpers

import (
	"fmt"
	"os"
	"strings"
)

// StatusURL composes the public capability URL for a purchase. Whoever holds
// the link can read the purchase, so the uniqueId it embeds is the only
// credential involved.
func StatusURL(uniqueID string) string {
	base := os.Getenv("FRONTEND_URL")
	if base == "" {
		base = "http://localhost:5174"
	}
	return fmt.Sprintf("%s/status/%s", strings.TrimSuffix(base, "/"), uniqueID)
}
