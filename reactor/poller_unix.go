//go:build unix

package reactor

import "golang.org/x/sys/unix"

// pollEvents are the only poll(2) event bits the reactor cares about;
// writability and readability map directly onto IOFlag.
const (
	pollIn  = int16(unix.POLLIN)
	pollOut = int16(unix.POLLOUT)
	pollErr = int16(unix.POLLERR | unix.POLLHUP | unix.POLLNVAL)
)

// pollWait is a thin wrapper around unix.Poll so the rest of the package
// never touches the syscall boundary directly. timeoutMillis < 0 blocks
// until an fd is ready.
func pollWait(fds []unix.PollFd, timeoutMillis int) (int, error) {
	return unix.Poll(fds, timeoutMillis)
}

// newWakePipe creates the self-pipe used to break a blocked poll(2) from
// Stop, set non-blocking on both ends so a burst of Stop calls can never
// block the writer.
func newWakePipe() (readFD, writeFD int, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

func closeFD(fd int) {
	if fd >= 0 {
		_ = unix.Close(fd)
	}
}
