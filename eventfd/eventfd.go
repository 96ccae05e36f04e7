//go:build linux

// Package eventfd wraps a Linux eventfd and an epoll set, used to wake a
// goroutine blocked on a file descriptor.
package eventfd

import (
	"encoding/binary"
	"errors"

	"golang.org/x/sys/unix"
)

type EventFD struct {
	fd  int
	buf [8]byte
}

func New() (EventFD, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return EventFD{fd: -1}, err
	}
	return EventFD{fd: fd}, nil
}

// Kick adds one to the counter, making the descriptor readable.
func (e *EventFD) Kick() error {
	binary.NativeEndian.PutUint64(e.buf[:], 1)
	_, err := unix.Write(e.fd, e.buf[:])
	return err
}

// Drain resets the counter.
func (e *EventFD) Drain() error {
	_, err := unix.Read(e.fd, e.buf[:])
	if errors.Is(err, unix.EAGAIN) {
		return nil
	}
	return err
}

func (e *EventFD) Close() error {
	if e.fd < 0 {
		return nil
	}
	fd := e.fd
	e.fd = -1
	return unix.Close(fd)
}

func (e *EventFD) FD() int {
	return e.fd
}

type Epoll struct {
	fd     int
	events []unix.EpollEvent
}

func NewEpoll() (Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return Epoll{fd: -1}, err
	}
	return Epoll{
		fd:     fd,
		events: make([]unix.EpollEvent, 4),
	}, nil
}

// AddEvent watches fd for readability.
func (ep *Epoll) AddEvent(fd int) error {
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	return unix.EpollCtl(ep.fd, unix.EPOLL_CTL_ADD, fd, &event)
}

// Block waits until at least one watched descriptor is readable and returns
// the readable descriptors. An interrupted wait returns no descriptors.
func (ep *Epoll) Block() ([]int, error) {
	n, err := unix.EpollWait(ep.fd, ep.events, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, err
	}

	fds := make([]int, n)
	for i := 0; i < n; i++ {
		fds[i] = int(ep.events[i].Fd)
	}
	return fds, nil
}

func (ep *Epoll) Close() error {
	if ep.fd < 0 {
		return nil
	}
	fd := ep.fd
	ep.fd = -1
	return unix.Close(fd)
}
