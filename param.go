package keymaster

import (
	"fmt"
	"os"
)

// Param returns the value of name from the backend config, falling back to
// the environment variable of the same name.
func Param(vaultConfig map[string]interface{}, name string) string {
	if v, exists := vaultConfig[name]; exists && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return os.Getenv(name)
}
