package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

func IsGzip(fname string) bool {
	return strings.HasSuffix(fname, ".gz")
}

/*
Reads files whether they are gzip ones or regular ones
*/
type FileReader struct {
	*bufio.Reader
	fd     *os.File
	gzipFd *gzip.Reader
}

func NewFileReader(fname string) (*FileReader, error) {
	var ret FileReader
	if err := ret.Open(fname); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (f *FileReader) Open(fname string) error {
	var err error
	f.fd, err = os.Open(fname)
	if err != nil {
		return fmt.Errorf("can't open %s: %w", fname, err)
	}

	if IsGzip(fname) {
		f.gzipFd, err = gzip.NewReader(f.fd)
		if err != nil {
			f.fd.Close()
			return fmt.Errorf("can't gunzip %s: %w", fname, err)
		}
		f.Reader = bufio.NewReader(f.gzipFd)
	} else {
		f.Reader = bufio.NewReader(f.fd)
	}
	return nil
}

func (f *FileReader) Close() error {
	if f.gzipFd != nil {
		f.gzipFd.Close()
	}
	return f.fd.Close()
}

// Return false to stop early
type LineFun func(line string) (bool, error)

func lines(r *bufio.Reader, fun LineFun) error {
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		// A last line without a newline still counts
		if err == io.EOF && line == "" {
			return nil
		}

		more, ferr := fun(strings.TrimRight(line, "\r\n"))
		if ferr != nil {
			return ferr
		}
		if !more || err == io.EOF {
			return nil
		}
	}
}

// Call fun for all the lines in a file
func Lines(fname string, fun LineFun) error {
	fp, err := NewFileReader(fname)
	if err != nil {
		return err
	}
	defer fp.Close()
	return ReaderLines(fp.Reader, fun)
}

// Call fun for all the lines in a Reader
func ReaderLines(reader io.Reader, fun LineFun) error {
	return lines(bufio.NewReader(reader), fun)
}

/*
The writing counterpart of FileReader. Names ending in .gz get compressed.
You must Close it, which flushes everything in the right order.
*/
type FileWriter struct {
	*bufio.Writer
	fd     *os.File
	gzipFd *gzip.Writer
}

func NewFileWriter(fname string) (*FileWriter, error) {
	if dir := filepath.Dir(fname); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("can't create %s: %w", dir, err)
		}
	}

	fd, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("can't create %s: %w", fname, err)
	}

	ret := FileWriter{fd: fd}
	if IsGzip(fname) {
		ret.gzipFd = gzip.NewWriter(fd)
		ret.Writer = bufio.NewWriter(ret.gzipFd)
	} else {
		ret.Writer = bufio.NewWriter(fd)
	}
	return &ret, nil
}

func (f *FileWriter) Close() error {
	err := f.Flush()
	if f.gzipFd != nil {
		if gerr := f.gzipFd.Close(); err == nil {
			err = gerr
		}
	}
	if ferr := f.fd.Close(); err == nil {
		err = ferr
	}
	return err
}

/*
Create fname, hand the writer to fun, and close it. The error is whichever
came first.
*/
func WriteFile(fname string, fun func(w io.Writer) error) error {
	fw, err := NewFileWriter(fname)
	if err != nil {
		return err
	}
	if err := fun(fw); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

// Add .gz if they asked for compression
func MaybeGzip(fname string, compress bool) string {
	if compress && !IsGzip(fname) {
		return fname + ".gz"
	}
	return fname
}
