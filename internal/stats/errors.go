package stats

import "errors"

var (
	ErrInspection    = errors.New("container inspection failed")
	ErrCgroupRead    = errors.New("failed to read cgroup membership")
	ErrStatFileRead  = errors.New("failed to read cgroup stat file")
	ErrEnumeration   = errors.New("failed to enumerate containers")
	ErrContainerName = errors.New("container has no usable name")
)
