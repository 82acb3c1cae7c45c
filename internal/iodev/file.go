//go:build linux

package iodev

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/mayastor-io/io-engine-core/internal/nexus"
)

// Raw io_uring submission built the same way the rest of this module's
// corpus does it when it needs kernel-level async I/O without a full
// liburing binding: a direct io_uring_setup/io_uring_enter syscall pair
// and hand-mapped SQ/CQ rings, sized for a handful of in-flight ops
// rather than a general-purpose ring.
const (
	fileRingDepth = 4

	ioringOpRead  = 22
	ioringOpWrite = 23

	ioringEnterGetEvents = 1 << 0
)

type sqe64 struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	length      uint32
	opcodeFlags uint32
	userData    uint64
	bufIndex    uint16
	personality uint16
	spliceOff   int32
	addr3       uint64
	_           uint64
}

type cqe16 struct {
	userData uint64
	res      int32
	flags    uint32
}

type sqRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	userAddr    uint64
}

type cqRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	userAddr    uint64
}

type ioUringParams struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFD         uint32
	resv         [3]uint32
	sqOff        sqRingOffsets
	cqOff        cqRingOffsets
}

// fileRing is a small, single-handle io_uring instance: one ring per
// FileDevice handle, never shared, so submission needs only enough
// locking to keep concurrent ReadAt/WriteAt callers from racing the
// same SQ tail.
type fileRing struct {
	fd     int
	params ioUringParams
	sqAddr unsafe.Pointer
	cqAddr unsafe.Pointer

	mu sync.Mutex
}

func newFileRing() (*fileRing, error) {
	params := ioUringParams{
		sqEntries: fileRingDepth,
		cqEntries: fileRingDepth * 2,
	}

	ringFD, _, errno := syscall.Syscall(unix.SYS_IO_URING_SETUP,
		uintptr(fileRingDepth),
		uintptr(unsafe.Pointer(&params)),
		0)
	if errno != 0 {
		return nil, fmt.Errorf("io_uring_setup: %w", errno)
	}

	sqSize := params.sqOff.array + params.sqEntries*4
	cqSize := params.cqOff.cqes + params.cqEntries*uint32(unsafe.Sizeof(cqe16{}))

	sqMap, err := unix.Mmap(int(ringFD), 0, int(sqSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		syscall.Close(int(ringFD))
		return nil, fmt.Errorf("mmap sq ring: %w", err)
	}
	cqMap, err := unix.Mmap(int(ringFD), 0x8000000, int(cqSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Munmap(sqMap)
		syscall.Close(int(ringFD))
		return nil, fmt.Errorf("mmap cq ring: %w", err)
	}

	return &fileRing{
		fd:     int(ringFD),
		params: params,
		sqAddr: unsafe.Pointer(&sqMap[0]),
		cqAddr: unsafe.Pointer(&cqMap[0]),
	}, nil
}

func (r *fileRing) close() error {
	return syscall.Close(r.fd)
}

// submit prepares and waits for a single READ or WRITE SQE against fd.
func (r *fileRing) submit(op uint8, fd int, buf []byte, off int64) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sqHead := (*uint32)(unsafe.Add(r.sqAddr, r.params.sqOff.head))
	sqTail := (*uint32)(unsafe.Add(r.sqAddr, r.params.sqOff.tail))
	sqMask := r.params.sqEntries - 1
	if (*sqTail - *sqHead) >= r.params.sqEntries {
		return 0, fmt.Errorf("file device ring: submission queue full")
	}

	sqArray := unsafe.Add(r.sqAddr, r.params.sqOff.array)
	sqIndex := *sqTail & sqMask
	sqeSlot := unsafe.Add(r.sqAddr, uintptr(unsafe.Sizeof(sqe64{}))*uintptr(sqIndex))

	var addr uintptr
	if len(buf) > 0 {
		addr = uintptr(unsafe.Pointer(&buf[0]))
	}

	*(*sqe64)(sqeSlot) = sqe64{
		opcode: op,
		fd:     int32(fd),
		off:    uint64(off),
		addr:   uint64(addr),
		length: uint32(len(buf)),
	}
	*(*uint32)(unsafe.Add(sqArray, uintptr(4*sqIndex))) = sqIndex
	*sqTail = *sqTail + 1

	if _, _, errno := syscall.Syscall6(unix.SYS_IO_URING_ENTER,
		uintptr(r.fd), 1, 1, uintptr(ioringEnterGetEvents), 0, 0); errno != 0 {
		return 0, fmt.Errorf("io_uring_enter: %w", errno)
	}

	cqHead := (*uint32)(unsafe.Add(r.cqAddr, r.params.cqOff.head))
	cqTail := (*uint32)(unsafe.Add(r.cqAddr, r.params.cqOff.tail))
	if *cqHead == *cqTail {
		return 0, fmt.Errorf("file device ring: no completion available")
	}
	cqMask := r.params.cqEntries - 1
	cqIndex := *cqHead & cqMask
	cqeSlot := unsafe.Add(r.cqAddr, uintptr(unsafe.Sizeof(cqe16{}))*uintptr(cqIndex))
	cqe := (*cqe16)(cqeSlot)
	res := cqe.res
	*cqHead = *cqHead + 1

	if res < 0 {
		return res, syscall.Errno(-res)
	}
	return res, nil
}

// FileDevice backs a nexus child with a regular file, read and written
// through raw io_uring rather than the ordinary os.File ReadAt/WriteAt
// syscalls, giving each acquired handle its own small ring.
type FileDevice struct {
	Name string
	file *os.File
}

// NewFileDevice opens (creating if necessary) path as the backing file
// for a nexus child.
func NewFileDevice(name, path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &FileDevice{Name: name, file: f}, nil
}

// Open acquires an independent writer and reader handle, each backed by
// its own io_uring instance against the same underlying file descriptor.
func (d *FileDevice) Open() (nexus.IOHandle, nexus.IOHandle, error) {
	writerRing, err := newFileRing()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: writer ring: %w", d.Name, err)
	}
	readerRing, err := newFileRing()
	if err != nil {
		writerRing.close()
		return nil, nil, fmt.Errorf("%s: reader ring: %w", d.Name, err)
	}

	fd := int(d.file.Fd())
	return &fileHandle{name: d.Name, fd: fd, ring: writerRing},
		&fileHandle{name: d.Name, fd: fd, ring: readerRing},
		nil
}

// Close closes the backing file. Must only be called after every handle
// acquired via Open has itself been closed.
func (d *FileDevice) Close() error {
	return d.file.Close()
}

type fileHandle struct {
	name string
	fd   int
	ring *fileRing
}

func (h *fileHandle) DeviceName() string { return h.name }

func (h *fileHandle) ReadAt(p []byte, off int64) (int, error) {
	n, err := h.ring.submit(ioringOpRead, h.fd, p, off)
	return int(n), err
}

func (h *fileHandle) WriteAt(p []byte, off int64) (int, error) {
	n, err := h.ring.submit(ioringOpWrite, h.fd, p, off)
	return int(n), err
}

func (h *fileHandle) Close() error {
	return h.ring.close()
}
