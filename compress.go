/*
 * compress.go, part of simspace.
 *
 * Copyright 2025 Raul Mera <rmeraa{at}academicos(dot)uta(dot)cl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chem

import (
	"bufio"
	"compress/bzip2"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// readCloser closes the decompressor (if it needs closing) and then the file.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var err error
	for _, c := range w.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// compression returns the compression format deduced from the file extension:
// "gz", "zst", "bz2" or the empty string for plain files.
func compression(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return "gz"
	case ".zst", ".zstd":
		return "zst"
	case ".bz2":
		return "bz2"
	}
	return ""
}

// OpenAny opens the file name for reading, decompressing it on the fly if
// its extension is .gz, .zst or .bz2.
func OpenAny(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newErr(err, name, "OpenAny", "%s", err.Error())
	}
	buf := bufio.NewReader(f)
	ret := &readCloser{closers: []func() error{f.Close}}
	switch compression(name) {
	case "gz":
		r, err := gzip.NewReader(buf)
		if err != nil {
			f.Close()
			return nil, newErr(err, name, "OpenAny", "Can't read gzip header: %s", err.Error())
		}
		ret.Reader = r
		ret.closers = append([]func() error{r.Close}, ret.closers...)
	case "zst":
		r, err := zstd.NewReader(buf)
		if err != nil {
			f.Close()
			return nil, newErr(err, name, "OpenAny", "Can't open zstd stream: %s", err.Error())
		}
		ret.Reader = r
		//*zstd.Decoder's Close doesn't return an error.
		ret.closers = append([]func() error{func() error { r.Close(); return nil }}, ret.closers...)
	case "bz2":
		ret.Reader = bzip2.NewReader(buf)
	default:
		ret.Reader = buf
	}
	return ret, nil
}

// CreateAny creates the file name, compressing the output if its extension
// is .gz or .zst. Writing bzip2 files is not supported. The returned object
// must be closed to flush all the data.
func CreateAny(name string) (io.WriteCloser, error) {
	var w io.WriteCloser
	format := compression(name)
	if format == "bz2" {
		return nil, newErr(nil, name, "CreateAny", "Writing bzip2 files is not supported")
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, newErr(err, name, "CreateAny", "%s", err.Error())
	}
	switch format {
	case "gz":
		w = gzip.NewWriter(f)
	case "zst":
		w, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			f.Close()
			return nil, newErr(err, name, "CreateAny", "Can't start zstd stream: %s", err.Error())
		}
	}
	bw := bufio.NewWriter(f)
	if w != nil {
		bw = bufio.NewWriter(w)
		return &writeCloser{Writer: bw, closers: []func() error{bw.Flush, w.Close, f.Close}}, nil
	}
	return &writeCloser{Writer: bw, closers: []func() error{bw.Flush, f.Close}}, nil
}
