package errtax_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/errtax"
)

func TestKindString(t *testing.T) {
	cases := map[errtax.Kind]string{
		errtax.InvalidArg: "InvalidArg",
		errtax.Resource:   "Resource",
		errtax.Transport:  "Transport",
		errtax.HttpStatus: "HttpStatus",
		errtax.Timeout:    "Timeout",
		errtax.ParseError: "ParseError",
		errtax.Kind(99):   "Unknown",
	}
	for k, want := range cases {
		require.Equal(t, want, k.String())
	}
}

func TestErrorWrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := errtax.New(errtax.Transport, "dial", cause).WithCode(101)
	require.Equal(t, 101, err.Code)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "dial")
	require.Contains(t, err.Error(), "Transport")
}

func TestClassifyNil(t *testing.T) {
	kind, code := errtax.Classify(nil)
	require.Equal(t, errtax.Kind(0), kind)
	require.Equal(t, errtax.CodeOK, code)
}
