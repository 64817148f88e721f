// Package pdu implements the FSD message catalog. Each message kind has a
// ParseX function taking the colon-split fields of a frame (with the routing
// tag already stripped from the first field) and a Serialize method producing
// the wire form without the frame terminator.
package pdu

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// Pdu is one decoded or outbound protocol message
type Pdu interface {
	Source() string
	Destination() string
	Serialize() string
}

// Base carries the sender and recipient shared by every message kind
type Base struct {
	From string
	To   string
}

// Source returns the sending callsign
func (b Base) Source() string { return b.From }

// Destination returns the recipient callsign or reserved token
func (b Base) Destination() string { return b.To }

// FormatError reports a frame that could not be decoded. RawMessage holds
// the reassembled fields for diagnostics.
type FormatError struct {
	Message    string
	RawMessage string
	Err        error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s (Raw packet: %s)", e.Message, e.RawMessage)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Reassemble joins fields back into their wire form
func Reassemble(fields []string) string {
	return strings.Join(fields, protocol.FSD_DELIMITER)
}

func fieldCountError(fields []string) error {
	return &FormatError{Message: "Invalid field count.", RawMessage: Reassemble(fields)}
}

func parseError(fields []string, err error) error {
	return &FormatError{Message: "Parse error.", RawMessage: Reassemble(fields), Err: err}
}

// fieldParser accumulates the first conversion error so parse functions can
// read every field in sequence and check once.
type fieldParser struct {
	fields []string
	err    error
}

func newFieldParser(fields []string) *fieldParser {
	return &fieldParser{fields: fields}
}

func (p *fieldParser) integer(i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(p.fields[i]))
	if err != nil {
		p.err = fmt.Errorf("field %d: %w", i, err)
	}
	return v
}

func (p *fieldParser) unsigned(i int) uint32 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimSpace(p.fields[i]), 10, 32)
	if err != nil {
		p.err = fmt.Errorf("field %d: %w", i, err)
	}
	return uint32(v)
}

func (p *fieldParser) decimal(i int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.fields[i]), 64)
	if err != nil {
		p.err = fmt.Errorf("field %d: %w", i, err)
	}
	return v
}

// coordinate parses a latitude or longitude and rejects NaN
func (p *fieldParser) coordinate(i int) float64 {
	v := p.decimal(i)
	if p.err == nil && math.IsNaN(v) {
		p.err = fmt.Errorf("field %d: coordinate is not a number", i)
	}
	return v
}

// rounded parses a decimal and rounds half to even
func (p *fieldParser) rounded(i int) int {
	return roundHalfEven(p.decimal(i))
}

func roundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}

func (p *fieldParser) flag(i int) bool {
	return p.fields[i] == "1"
}

func (p *fieldParser) done() error {
	if p.err != nil {
		return parseError(p.fields, p.err)
	}
	return nil
}

// builder assembles a wire string from a tag and delimited fields
type builder struct {
	sb strings.Builder
	n  int
}

func newBuilder(tag string) *builder {
	b := &builder{}
	b.sb.WriteString(tag)
	return b
}

func (b *builder) add(s string) *builder {
	if b.n > 0 {
		b.sb.WriteString(protocol.FSD_DELIMITER)
	}
	b.sb.WriteString(s)
	b.n++
	return b
}

func (b *builder) addInt(v int) *builder {
	return b.add(strconv.Itoa(v))
}

func (b *builder) addFloat(v float64, decimals int) *builder {
	return b.add(strconv.FormatFloat(v, 'f', decimals, 64))
}

func (b *builder) addFlag(v bool) *builder {
	if v {
		return b.add("1")
	}
	return b.add("0")
}

func (b *builder) String() string {
	return b.sb.String()
}
