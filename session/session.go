// Package session derives a globally-unique-per-boot identifier for a
// relay connection, for tagging archive records and Prometheus labels. It
// generalizes the teacher's uuid package from a server-side kernel socket
// cookie identifying an inbound TCP flow to a client-side cookie
// identifying this process's outbound relay connection.
package session

import (
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unsafe"
)

const (
	// syscallSoCookie is SO_COOKIE as defined in socket.h in the Linux
	// kernel; it has no portable name in the syscall package.
	syscallSoCookie = 57
)

var cachedPrefix = ""

func timeToUnix(t time.Time) int64 {
	return int64(t.Sub(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)).Seconds())
}

// bootTimeWithRaceCondition has a race condition between reading
// /proc/uptime and calling time.Now(): if a second-granularity boundary
// is crossed between the two reads, the result is off by one. Callers
// should call it repeatedly until it returns the same answer twice.
func bootTimeWithRaceCondition() (int64, error) {
	procUptime, err := ioutil.ReadFile("/proc/uptime")
	if err != nil {
		return -1, err
	}
	parts := strings.Split(string(procUptime), " ")
	if len(parts) != 2 {
		return -1, fmt.Errorf("session: could not split /proc/uptime")
	}
	uptime, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return -1, fmt.Errorf("session: could not parse /proc/uptime")
	}
	return timeToUnix(time.Now().Add(time.Duration(-1 * uptime * float64(time.Second)))), nil
}

func bootTime() (int64, error) {
	var prev, curr int64
	curr, err := bootTimeWithRaceCondition()
	if err != nil {
		return curr, err
	}
	for prev != curr {
		prev = curr
		curr, err = bootTimeWithRaceCondition()
		if err != nil {
			return curr, err
		}
	}
	return curr, nil
}

// prefix returns a string combining the hostname and boot time, which
// uniquely identifies this process's session-id namespace. Cached because
// both inputs are constant for the life of the process.
func prefix() (string, error) {
	if cachedPrefix != "" {
		return cachedPrefix, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	boot, err := bootTime()
	if err != nil {
		return "", err
	}
	cachedPrefix = fmt.Sprintf("%s_%d", hostname, boot)
	return cachedPrefix, nil
}

// socketCookie reads SO_COOKIE off t's underlying file descriptor. For a
// given boot of a given hostname it is unique until the process opens
// more than 2^64 sockets.
func socketCookie(t *net.TCPConn) (uint64, error) {
	var cookie uint64
	cookieLen := uint32(unsafe.Sizeof(cookie))
	f, err := t.File()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	_, _, errno := syscall.Syscall6(
		uintptr(syscall.SYS_GETSOCKOPT),
		uintptr(int(f.Fd())),
		uintptr(syscall.SOL_SOCKET),
		uintptr(syscallSoCookie),
		uintptr(unsafe.Pointer(&cookie)),
		uintptr(unsafe.Pointer(&cookieLen)),
		uintptr(0))
	if errno != 0 {
		return 0, fmt.Errorf("session: getsockopt(SO_COOKIE) errno=%d", errno)
	}
	return cookie, nil
}

// From returns a globally-unique-per-boot session identifier for conn. It
// unwraps a *tls.Conn to its underlying *net.TCPConn when necessary. If
// the socket cookie cannot be obtained (non-Linux, or a non-TCP conn such
// as one used in a test), From falls back to a coarser but still
// practically-unique host/time/pointer based identifier rather than
// failing the connection.
func From(conn net.Conn) string {
	underlying := conn
	if tc, ok := conn.(*tls.Conn); ok {
		underlying = tc.NetConn()
	}
	if tcp, ok := underlying.(*net.TCPConn); ok {
		if cookie, err := socketCookie(tcp); err == nil {
			if p, err := prefix(); err == nil {
				return fmt.Sprintf("%s_%X", p, cookie)
			}
		}
	}
	return fallbackID()
}

func fallbackID() string {
	p, err := prefix()
	if err != nil {
		p = fmt.Sprintf("unknown_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%X", p, time.Now().UnixNano())
}
