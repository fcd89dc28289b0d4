package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type target struct {
	a int
	b string
}

func TestApply_InOrder(t *testing.T) {
	tgt := &target{}

	err := Apply(tgt,
		NoError(func(x *target) { x.a = 1 }),
		NoError(func(x *target) { x.b = "set" }),
		NoError(func(x *target) { x.a = 2 }),
	)

	require.NoError(t, err)
	require.Equal(t, 2, tgt.a, "later options win")
	require.Equal(t, "set", tgt.b)
}

func TestApply_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	tgt := &target{}

	err := Apply(tgt,
		New(func(x *target) error { x.a = 1; return nil }),
		New(func(*target) error { return boom }),
		NoError(func(x *target) { x.a = 99 }),
	)

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, tgt.a, "options after the failing one must not run")
}

func TestApply_NoOptions(t *testing.T) {
	require.NoError(t, Apply(&target{}))
}
