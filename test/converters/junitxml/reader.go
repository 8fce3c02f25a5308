package junitxml

import (
	"os"
)

type resultReader interface {
	ReadAll() ([]byte, error)
	Name() string
}

type fileReader struct {
	Filename string
}

func (r *fileReader) ReadAll() ([]byte, error) {
	return os.ReadFile(r.Filename)
}

func (r *fileReader) Name() string {
	return r.Filename
}

type stringReader struct {
	Contents string
}

func (r *stringReader) ReadAll() ([]byte, error) {
	return []byte(r.Contents), nil
}

func (r *stringReader) Name() string {
	return "string"
}
