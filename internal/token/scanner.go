// Package token splits the plain-text image and kernel formats into
// whitespace-separated tokens. Line structure is not significant; a '#'
// at the start of a token begins a comment that runs to end of line.
package token

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/ppmfilter/internal/errs"
)

// ErrTokenTooLong is returned by Err when a single token exceeds
// bufio.MaxScanTokenSize bytes. Comments may be any length.
var ErrTokenTooLong = errors.New("token: token too long")

// Scanner reads tokens from an io.Reader.
type Scanner struct {
	s         *bufio.Scanner
	count     int
	inComment bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	sc := &Scanner{s: bufio.NewScanner(r)}
	sc.s.Split(sc.split)
	return sc
}

// Next returns the next token. ok is false at end of input or on a read
// error; call Err to tell the two apart.
func (s *Scanner) Next() (tok string, ok bool) {
	if !s.s.Scan() {
		return "", false
	}
	s.count++
	return s.s.Text(), true
}

// Err returns the first non-EOF error. An oversized token is reported
// as ErrTokenTooLong.
func (s *Scanner) Err() error {
	err := s.s.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return fmt.Errorf("%w: longer than %d bytes", ErrTokenTooLong, bufio.MaxScanTokenSize)
	}
	return err
}

// Kind classifies an error from Err: an oversized token is malformed
// input, anything else is a read failure.
func Kind(err error) errs.Kind {
	if errors.Is(err, ErrTokenTooLong) {
		return errs.KindFormat
	}
	return errs.KindIO
}

// Count returns the number of tokens returned so far.
func (s *Scanner) Count() int {
	return s.count
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// split is a bufio.SplitFunc that skips whitespace and comments and
// yields maximal runs of other bytes. Comment bytes are consumed as they
// arrive, so a comment never has to fit in the scan buffer.
func (s *Scanner) split(data []byte, atEOF bool) (advance int, tok []byte, err error) {
	i := 0
	for i < len(data) {
		if s.inComment {
			nl := bytes.IndexByte(data[i:], '\n')
			if nl < 0 {
				return len(data), nil, nil
			}
			s.inComment = false
			i += nl + 1
			continue
		}
		c := data[i]
		if isSpace(c) {
			i++
			continue
		}
		if c != '#' {
			break
		}
		s.inComment = true
		i++
	}

	if i == len(data) {
		return i, nil, nil
	}

	start := i
	for i < len(data) {
		if isSpace(data[i]) || data[i] == '#' {
			return i, data[start:i], nil
		}
		i++
	}
	if atEOF {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
