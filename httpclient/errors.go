package httpclient

import "github.com/yanrbts/wscan/errtax"

func errInvalidArg(op string) error {
	return errtax.New(errtax.InvalidArg, op, nil)
}

func errResource(op string, cause error) error {
	return errtax.New(errtax.Resource, op, cause)
}
