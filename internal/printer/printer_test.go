package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	p.Successf("saved %d slots", 2)
	p.Errorf("failed")
	p.Field("bundle", "com.example")

	assert.Equal(t, "saved 2 slots\nfailed\n  bundle:        com.example\n", buf.String())
	assert.False(t, p.Styled())
}

func TestPrinter_Styled(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)

	p.Successf("ok")
	assert.Contains(t, buf.String(), "✔")
	assert.Contains(t, buf.String(), "ok")
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	ctx := With(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}
