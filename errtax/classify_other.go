//go:build !unix

package errtax

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// Transport taxonomy codes, the same values classify_unix.go defines for
// unix builds. Only the errno mapping differs between the two files.
const (
	CodeOK             = 0
	CodeDNS            = 100
	CodeConnRefused    = 101
	CodeConnReset      = 102
	CodeConnAborted    = 103
	CodeHostUnreach    = 104
	CodeNetUnreach     = 105
	CodeNetDown        = 106
	CodeAddrInUse      = 107
	CodeAddrNotAvail   = 108
	CodeTimeout        = 109
	CodeTLSHandshake   = 110
	CodeProtocol       = 111
	CodeEOF            = 112
	CodeCanceled       = 113
	CodeTooManyRedir   = 114
	CodeFDTableFull    = 115
	CodeUnknownNetwork = 199
)

// Classify maps an error to a (Kind, transport code) pair without relying
// on golang.org/x/sys/unix errno constants, for non-unix builds. Raw errno
// values all classify as CodeUnknownNetwork here. The reactor package is
// unix-only and has no non-unix implementation.
func Classify(err error) (Kind, int) {
	if err == nil {
		return 0, CodeOK
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Transport, CodeDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout, CodeTimeout
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return Timeout, CodeTimeout
	}

	if errors.Is(err, context.Canceled) {
		return Transport, CodeCanceled
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Transport, CodeUnknownNetwork
	}

	return Transport, CodeUnknownNetwork
}
