package cache

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"strings"
)

// KeyBuilder builds cache keys of the form <namespace>_<version>_<base>_<hash>.
// Bump the version whenever the shape of a cached payload changes so old
// entries are never decoded as the new shape. An underscore in Namespace is
// written as "-" so no namespace prefix can match another namespace's keys.
type KeyBuilder struct {
	Namespace string
	Version   string
}

// Key returns the key for base and params. encoding/json sorts map keys, so
// equal params always produce the same hash.
func (b KeyBuilder) Key(base string, params map[string]any) string {
	var raw []byte
	if params != nil {
		raw, _ = json.Marshal(params)
	}
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return b.Prefix() + b.Version + "_" + base + "_" + strconv.FormatUint(h.Sum64(), 36)
}

// Prefix is the part of every key that identifies this cache's namespace.
func (b KeyBuilder) Prefix() string {
	return strings.ReplaceAll(b.Namespace, "_", "-") + "_"
}
