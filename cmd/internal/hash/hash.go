package hash

import (
	"fmt"
	"github.com/samber/lo"
	"github.com/zeebo/xxh3"
	"golang.org/x/exp/slices"
)

// Fingerprint returns a stable hash of a set of key/value pairs. It lets two runs be compared in
// the logs without printing values that may be secret.
func Fingerprint(values map[string]string) string {
	keys := lo.Keys(values)
	slices.Sort(keys)

	hasher := xxh3.New()
	for _, key := range keys {
		_, _ = hasher.Write([]byte(key + "=" + values[key] + "\x00"))
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}
