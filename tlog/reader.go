// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package tlog reads compile records from MSBuild CL command tracking logs
// (CL.command.*.tlog).
//
// A record is two physical lines:
//
//	^C:\PATH\TO\SOURCE.CPP
//	/c /IC:\PATH\TO\INCLUDE ... SOURCE.CPP
//
// A file may contain several records. Lines are written in single-byte text,
// UTF-8 with BOM, or UTF-16LE (with or without BOM), see Decode.
package tlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.chromium.org/infra/build/vscompdb/o11y/clog"
)

// MaxLineSize is the maximum size of a physical line, including its '\n'.
const MaxLineSize = 2048

const (
	fileMarker    = "^"
	compileMarker = "/c"
)

var errLineTooLong = errors.New("line too long")

// Record is one compile invocation in a tlog file.
type Record struct {
	// File is the absolute source file path, as written in the log.
	File string
	// Directory is File up to and including its last backslash.
	Directory string
	// Command is the command line, as written in the log.
	Command string
}

// Reader reads records from a tlog file.
type Reader struct {
	br      *bufio.Reader
	name    string
	verbose bool

	lineno    int
	done      bool
	violation string
}

// ReaderOption is an option of Reader.
type ReaderOption func(*Reader)

// WithName sets the file name used in diagnostics.
func WithName(name string) ReaderOption {
	return func(r *Reader) {
		r.name = name
	}
}

// WithVerbose enables diagnostics for malformed records.
func WithVerbose(verbose bool) ReaderOption {
	return func(r *Reader) {
		r.verbose = verbose
	}
}

// NewReader creates a reader of records from r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{
		br:   bufio.NewReaderSize(r, MaxLineSize),
		name: "<tlog>",
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Next returns the next record.
// It returns io.EOF when no more record is available, either at the end of
// the file or because the data doesn't follow the record grammar
// (see Violation). Once Next returns an error, it keeps returning io.EOF.
// Decoding errors are *EncodingError.
func (r *Reader) Next(ctx context.Context) (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}
	line, err := r.nextLine()
	if errors.Is(err, io.EOF) {
		return r.stop(io.EOF)
	}
	if err != nil {
		return r.fail(ctx, "file line", err)
	}
	file, ok := strings.CutPrefix(line, fileMarker)
	if !ok {
		return r.malformed(ctx, "missing %q file marker: %q", fileMarker, line)
	}
	i := strings.LastIndexByte(file, '\\')
	if i < 0 {
		return r.malformed(ctx, "no directory in file path: %q", file)
	}
	dir := file[:i+1]

	cmd, err := r.nextLine()
	if errors.Is(err, io.EOF) {
		return r.malformed(ctx, "missing command line for %q", file)
	}
	if err != nil {
		return r.fail(ctx, "command line", err)
	}
	if !strings.HasPrefix(cmd, compileMarker) {
		return r.malformed(ctx, "command line doesn't start with %q: %q", compileMarker, cmd)
	}
	return Record{
		File:      file,
		Directory: dir,
		Command:   cmd,
	}, nil
}

// Violation returns the reason why the reader stopped before the end of
// the file, or "" if it hasn't.
func (r *Reader) Violation() string {
	return r.violation
}

// nextLine reads and decodes one physical line.
func (r *Reader) nextLine() (string, error) {
	raw, err := r.br.ReadSlice('\n')
	if errors.Is(err, io.EOF) && len(raw) == 0 {
		return "", io.EOF
	}
	r.lineno++
	last := false
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", errLineTooLong
	case errors.Is(err, io.EOF):
		// last line without '\n'.
		last = true
	case err != nil:
		return "", err
	default:
		raw = raw[:len(raw)-1]
	}
	if len(raw) >= MaxLineSize {
		return "", errLineTooLong
	}
	line, err := Decode(raw)
	if err != nil {
		return "", err
	}
	if last && line == "" {
		// UTF-16 files end with the high byte of the last '\n'.
		return "", io.EOF
	}
	return line, nil
}

func (r *Reader) stop(err error) (Record, error) {
	r.done = true
	return Record{}, err
}

func (r *Reader) fail(ctx context.Context, what string, err error) (Record, error) {
	if errors.Is(err, errLineTooLong) {
		return r.malformed(ctx, "%s: %v (max %d bytes)", what, err, MaxLineSize)
	}
	return r.stop(fmt.Errorf("%s:%d: %s: %w", r.name, r.lineno, what, err))
}

func (r *Reader) malformed(ctx context.Context, format string, args ...any) (Record, error) {
	r.violation = fmt.Sprintf("line %d: %s", r.lineno, fmt.Sprintf(format, args...))
	if r.verbose {
		clog.Infof(ctx, "%s: malformed record: %s", r.name, r.violation)
	}
	return r.stop(io.EOF)
}

// ReadAll reads all records from r.
func ReadAll(ctx context.Context, r io.Reader, opts ...ReaderOption) ([]Record, error) {
	rd := NewReader(r, opts...)
	var records []Record
	for {
		rec, err := rd.Next(ctx)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
