//go:build unix

package errtax

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Transport taxonomy codes. Zero means success (§4.2's complete_cb
// contract: "transport_result is zero on success"). Values are stable
// across process runs but not guaranteed stable across releases.
const (
	CodeOK = 0

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

// Classify maps an error observed on a network operation to a
// (Kind, transport code) pair as required by §7. A nil error classifies as
// (Kind(0), CodeOK).
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

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Transport, classifyErrno(errno)
	}

	if errors.Is(err, context.Canceled) {
		return Transport, CodeCanceled
	}

	return Transport, CodeUnknownNetwork
}

func classifyErrno(errno syscall.Errno) int {
	switch unix.Errno(errno) {
	case unix.ECONNREFUSED:
		return CodeConnRefused
	case unix.ECONNRESET:
		return CodeConnReset
	case unix.ECONNABORTED:
		return CodeConnAborted
	case unix.EHOSTUNREACH:
		return CodeHostUnreach
	case unix.ENETUNREACH:
		return CodeNetUnreach
	case unix.ENETDOWN:
		return CodeNetDown
	case unix.EADDRINUSE:
		return CodeAddrInUse
	case unix.EADDRNOTAVAIL:
		return CodeAddrNotAvail
	case unix.ETIMEDOUT:
		return CodeTimeout
	default:
		return CodeUnknownNetwork
	}
}
