package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationUnavailable 无法确定任何系统数据目录（致命错误）
	ErrLocationUnavailable = errors.New("cannot locate executable or home directory for app data")

	// ErrInvalidDocument 写入的数据不是 JSON 数组
	ErrInvalidDocument = errors.New("invalid history document: expected a JSON array")
)

// IOError wraps a filesystem failure with the operation and path that caused it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func ioError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var existing *IOError
	if errors.As(err, &existing) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}
