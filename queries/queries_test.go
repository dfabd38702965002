package queries

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguages_Embedded(t *testing.T) {
	t.Parallel()
	langs, err := Languages(FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "cpp", "go", "java", "javascript", "php", "python", "ruby", "rust", "typescript"}, langs)
}

func TestSource(t *testing.T) {
	t.Parallel()
	src, err := Source(FS, "go")
	require.NoError(t, err)
	assert.Contains(t, string(src), "@definition.var")
	assert.Contains(t, string(src), "@reference")

	_, err = Source(FS, "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestHash(t *testing.T) {
	t.Parallel()
	a := fstest.MapFS{"go.scm": {Data: []byte("(block) @scope")}}
	b := fstest.MapFS{"go.scm": {Data: []byte("(block) @scope.block")}}
	c := fstest.MapFS{
		"go.scm":     {Data: []byte("(block) @scope")},
		"README.txt": {Data: []byte("ignored")},
	}

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	hc, err := Hash(c)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.NotEqual(t, ha, hb)
	assert.Equal(t, ha, hc, "non-query files do not affect the hash")

	again, err := Hash(a)
	require.NoError(t, err)
	assert.Equal(t, ha, again)
}
