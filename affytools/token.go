// ===========================================================================
//
// File Name:  token.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// TokenType is the integer type for tokenizer results
type TokenType int

// TokenType keys for tokenizer results
const (
	NOTOKEN TokenType = iota
	WORDTOKEN
	NUMBERTOKEN
	EOLTOKEN
	EOFTOKEN
)

func (typ TokenType) String() string {

	switch typ {
	case WORDTOKEN:
		return "word"
	case NUMBERTOKEN:
		return "number"
	case EOLTOKEN:
		return "end-of-line"
	case EOFTOKEN:
		return "end-of-input"
	}

	return "none"
}

// Token is a single lexical item. Text holds the characters of a word or
// number, Value the parsed number.
type Token struct {
	Type  TokenType
	Text  string
	Value float64
}

// Tokenizer splits decoded text into words, numbers, and significant line
// ends. Bytes are never reinterpreted: every byte above space other than DEL,
// including non-ASCII bytes, is a word constituent.
type Tokenizer struct {
	rdr    *bufio.Reader
	line   int
	err    error
	trunc  error
	closed bool
	buffer []byte
}

// NewTokenizer starts reading at line 1
func NewTokenizer(inp io.Reader) *Tokenizer {

	return &Tokenizer{
		rdr:  bufio.NewReaderSize(inp, 65536),
		line: 1,
	}
}

// LineNumber returns the current physical line, counting from 1
func (tkz *Tokenizer) LineNumber() int {

	return tkz.line
}

// Err returns the first read error that was not end-of-input or benign truncation
func (tkz *Tokenizer) Err() error {

	return tkz.err
}

// Truncation returns the benign truncation error that ended input, if any
func (tkz *Tokenizer) Truncation() error {

	return tkz.trunc
}

// readByte maps benign truncation to end-of-input and remembers anything else
func (tkz *Tokenizer) readByte() (byte, bool) {

	if tkz.closed {
		return 0, false
	}

	ch, err := tkz.rdr.ReadByte()
	if err != nil {
		tkz.closed = true
		switch {
		case err == io.EOF:
		case IsBenignTruncation(err):
			tkz.trunc = err
		default:
			tkz.err = err
		}
		return 0, false
	}

	return ch, true
}

// isSeparator is true for ASCII white space and control bytes
func isSeparator(ch byte) bool {

	return ch <= ' ' || ch == 0x7f
}

// Next returns the next token, EOFTOKEN forever once input is exhausted
func (tkz *Tokenizer) Next() Token {

	// skip separators, stopping at line ends
	for {
		ch, ok := tkz.readByte()
		if !ok {
			return Token{Type: EOFTOKEN}
		}

		if ch == '\r' {
			// treat CR LF as a single line end
			nxt, ok := tkz.readByte()
			if ok && nxt != '\n' {
				tkz.rdr.UnreadByte()
			}
			tkz.line++
			return Token{Type: EOLTOKEN}
		}
		if ch == '\n' {
			tkz.line++
			return Token{Type: EOLTOKEN}
		}
		if isSeparator(ch) {
			continue
		}

		tkz.buffer = append(tkz.buffer[:0], ch)
		break
	}

	// collect word constituents
	for {
		ch, ok := tkz.readByte()
		if !ok {
			break
		}
		if isSeparator(ch) {
			// line end is handled on the next call
			tkz.rdr.UnreadByte()
			break
		}
		tkz.buffer = append(tkz.buffer, ch)
	}

	str := string(tkz.buffer)

	if isDecimal(str) {
		val, err := strconv.ParseFloat(str, 64)
		if err == nil {
			return Token{Type: NUMBERTOKEN, Text: str, Value: val}
		}
	}

	return Token{Type: WORDTOKEN, Text: str}
}

// isDecimal accepts an optional minus sign, digits, and at most one decimal point
func isDecimal(str string) bool {

	if strings.HasPrefix(str, "-") {
		str = str[1:]
	}

	digits := 0
	points := 0

	for _, ch := range str {
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '.':
			points++
			if points > 1 {
				return false
			}
		default:
			return false
		}
	}

	return digits > 0
}
