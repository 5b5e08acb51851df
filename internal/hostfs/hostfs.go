package hostfs

import "os"

// FileSystem is the subset of host filesystem access the collectors need.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	Readlink(name string) (string, error)
}

type OS struct{}

func (OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OS) Readlink(name string) (string, error) {
	return os.Readlink(name)
}
