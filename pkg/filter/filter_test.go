package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdered(t *testing.T) {
	between := Between(0, 100)
	assert.True(t, between(0))
	assert.True(t, between(42))
	assert.True(t, between(100))
	assert.False(t, between(101))
	assert.False(t, between(-1))

	assert.False(t, Between(50, 100)(42))

	assert.True(t, GreaterThan(1.5)(2))
	assert.False(t, GreaterThan(2)(2))
	assert.True(t, AtLeast(2)(2))
	assert.True(t, LessThan("b")("a"))
	assert.False(t, AtMost(int64(3))(4))
}

func TestNonNegative(t *testing.T) {
	assert.True(t, NonNegative[int]()(0))
	assert.False(t, NonNegative[float64]()(-0.5))
}

func TestNotEqual(t *testing.T) {
	notMinusOne := NotEqual(-1)
	assert.False(t, notMinusOne(-1))
	assert.True(t, notMinusOne(0))
}

func TestNotNil(t *testing.T) {
	var p *int
	n := 3
	assert.False(t, NotNil[*int]()(p))
	assert.True(t, NotNil[*int]()(&n))

	assert.False(t, NotNil[error]()(nil))
	assert.False(t, NotNil[[]byte]()(nil))
	assert.True(t, NotNil[[]byte]()([]byte{}))
	assert.True(t, NotNil[int]()(0))
}

func TestStrings(t *testing.T) {
	assert.False(t, NotEmpty()(""))
	assert.True(t, MinLength(3)("abc"))
	assert.False(t, MinLength(4)("abc"))
	assert.True(t, MaxLength(3)("abc"))
	assert.False(t, MaxLength(2)("abc"))
	assert.True(t, LengthBetween(1, 3)("ab"))
	assert.False(t, LengthBetween(1, 3)(""))
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	file := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))
	missing := filepath.Join(dir, "missing")

	assert.True(t, IsFile()(file))
	assert.False(t, IsFile()(dir))
	assert.False(t, IsFile()(missing))

	assert.True(t, IsDir()(dir))
	assert.False(t, IsDir()(file))

	assert.True(t, IsEmptyDir()(empty))
	assert.False(t, IsEmptyDir()(dir))
	assert.False(t, IsEmptyDir()(missing))

	assert.True(t, MinSize(5)(file))
	assert.False(t, MinSize(6)(file))
	assert.True(t, MaxSize(5)(file))
	assert.False(t, MaxSize(4)(file))
	assert.False(t, MaxSize(100)(dir))
}
