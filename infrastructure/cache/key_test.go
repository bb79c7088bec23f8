package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Key(t *testing.T) {
	b := KeyBuilder{Namespace: "mediacache", Version: "v2"}

	a := b.Key("doodapi_search", map[string]any{"term": "cat", "page": 1})
	same := b.Key("doodapi_search", map[string]any{"page": 1, "term": "cat"})
	other := b.Key("doodapi_search", map[string]any{"term": "dog", "page": 1})

	assert.Equal(t, a, same)
	assert.NotEqual(t, a, other)
	assert.True(t, strings.HasPrefix(a, "mediacache_v2_doodapi_search_"))
}

func TestKeyBuilder_VersionChangesKey(t *testing.T) {
	v1 := KeyBuilder{Namespace: "m", Version: "v1"}.Key("list", nil)
	v2 := KeyBuilder{Namespace: "m", Version: "v2"}.Key("list", nil)

	assert.NotEqual(t, v1, v2)
	assert.True(t, strings.HasPrefix(v2, KeyBuilder{Namespace: "m"}.Prefix()))
}

func TestKeyBuilder_PrefixIsNotSharedAcrossNamespaces(t *testing.T) {
	short := KeyBuilder{Namespace: "media", Version: "v1"}
	long := KeyBuilder{Namespace: "media_old", Version: "v1"}

	assert.Equal(t, "media-old_", long.Prefix())
	assert.False(t, strings.HasPrefix(long.Key("x", nil), short.Prefix()))
	assert.True(t, strings.HasPrefix(long.Key("x", nil), long.Prefix()))
}
