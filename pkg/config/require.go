package config

import (
	"fmt"
	"slices"
	"strings"
)

// Required maps env var names to the values loaded for them.
type Required map[string]string

// Check reports every empty entry at once.
func (r Required) Check() error {
	var missing []string
	for name, value := range r {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
}
