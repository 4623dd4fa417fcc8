package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolGeneratesOnEmpty(t *testing.T) {
	var made int
	p := NewPool(func() *bytes.Buffer {
		made++
		return new(bytes.Buffer)
	})

	buf := p.Get()
	assert.NotNil(t, buf)
	assert.Equal(t, 1, made)
	p.Put(buf)
}

func TestResetPoolResetsOnPut(t *testing.T) {
	p := NewResetPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

	buf := p.Get()
	buf.WriteString("frame")
	p.Put(buf)

	assert.Zero(t, buf.Len())
}
