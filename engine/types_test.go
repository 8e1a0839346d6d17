package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Compare(t *testing.T) {
	c, ok := Int(1).Compare(Float(1.5))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = String("b").Compare(String("a"))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Int(1).Compare(String("1"))
	assert.False(t, ok)

	_, ok = Null().Compare(Int(1))
	assert.False(t, ok)
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(Int(0)))
	assert.True(t, BlobValue([]byte{1, 2}).Equal(BlobValue([]byte{1, 2})))
	assert.False(t, BlobValue([]byte{1}).Equal(BlobValue([]byte{2})))
}

func TestValue_Copy(t *testing.T) {
	orig := BlobValue([]byte{1, 2, 3})
	cp := orig.Copy()
	cp.Bytes[0] = 9
	assert.Equal(t, byte(1), orig.Bytes[0])
}

func TestCheckType(t *testing.T) {
	assert.True(t, CheckType(BigInt, Int(1)))
	assert.True(t, CheckType(Double, Int(1)))
	assert.True(t, CheckType(Blob.WithAlias("stbox"), BlobValue(nil)))
	assert.True(t, CheckType(Varchar, Null()))
	assert.False(t, CheckType(BigInt, String("x")))
}

func TestLogicalType_String(t *testing.T) {
	assert.Equal(t, "BLOB", Blob.String())
	assert.Equal(t, "stbox", Blob.WithAlias("stbox").String())
}
