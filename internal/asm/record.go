package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Width selects the data directive of a field.
type Width int

const (
	Long Width = iota
	Short
)

func (w Width) directive() string {
	if w == Short {
		return ".short"
	}
	return ".long"
}

// commentColumn keeps trailing comments aligned across .long and .short.
func (w Width) commentColumn() int {
	if w == Short {
		return 15
	}
	return 16
}

// Value is one operand of a data directive: either an integer literal or a
// symbolic reference, optionally with a byte offset. References are left for
// the linker to resolve.
type Value struct {
	ref       string
	offset    int
	hasOffset bool
	num       int64
	hexDigits int
}

// Int is a decimal integer literal.
func Int(v int) Value {
	return Value{num: int64(v)}
}

// Hex is an integer literal printed as 0x with at least digits hex digits.
func Hex(v, digits int) Value {
	return Value{num: int64(v), hexDigits: digits}
}

// Ref references a label.
func Ref(label string) Value {
	return Value{ref: label}
}

// RefPlus references label + offset. The offset is always written out, even
// when zero, so row tables keep a uniform shape.
func RefPlus(label string, offset int) Value {
	return Value{ref: label, offset: offset, hasOffset: true}
}

// IsRef reports whether the value is a symbolic reference.
func (v Value) IsRef() bool {
	return v.ref != ""
}

func (v Value) String() string {
	switch {
	case v.ref != "" && v.hasOffset:
		return fmt.Sprintf("%s + %d", v.ref, v.offset)
	case v.ref != "":
		return v.ref
	case v.hexDigits > 0:
		return fmt.Sprintf("0x%0*X", v.hexDigits, v.num)
	default:
		return strconv.FormatInt(v.num, 10)
	}
}

// Field is one directive line.
type Field struct {
	Width   Width
	Values  []Value
	Comment string
}

func long(v Value, comment string) Field {
	return Field{Width: Long, Values: []Value{v}, Comment: comment}
}

func longs(vs ...Value) Field {
	return Field{Width: Long, Values: vs}
}

func short(v Value, comment string) Field {
	return Field{Width: Short, Values: []Value{v}, Comment: comment}
}

func (f Field) String() string {
	parts := make([]string, len(f.Values))
	for i, v := range f.Values {
		parts[i] = v.String()
	}
	body := strings.Join(parts, ", ")
	if f.Comment == "" {
		return "\t" + f.Width.directive() + " " + body
	}
	return fmt.Sprintf("\t%s %-*s# %s", f.Width.directive(), f.Width.commentColumn(), body, f.Comment)
}

// Record is one emitted unit of the data section: a labelled, aligned block of
// fields optionally followed by raw bytes. A byte-block is a record with Data
// and no Fields.
type Record struct {
	Comment string
	Label   string
	Global  bool
	Align   int
	Fields  []Field
	Data    []byte
}

// References lists every label the record's fields point at, in order.
func (r *Record) References() []string {
	var refs []string
	for _, f := range r.Fields {
		for _, v := range f.Values {
			if v.IsRef() {
				refs = append(refs, v.ref)
			}
		}
	}
	return refs
}

// bytesPerLine is the number of .byte operands per line.
const bytesPerLine = 8

func writeBytes(w *streamWriter, data []byte) {
	for c, b := range data {
		if c%bytesPerLine == 0 {
			w.printf("\t.byte ")
		}
		w.printf("0x%02X", b)
		if c < len(data)-1 && c%bytesPerLine != bytesPerLine-1 {
			w.printf(", ")
		} else {
			w.printf("\n")
		}
	}
}

func writeRecord(w *streamWriter, r *Record) {
	if r.Comment != "" {
		w.printf("# %s\n", r.Comment)
	}
	if r.Global {
		w.printf(".globl %s\n", r.Label)
	}
	if r.Align > 0 {
		w.printf(".balign %d\n", r.Align)
	}
	w.printf("%s:\n", r.Label)
	for _, f := range r.Fields {
		w.printf("%s\n", f.String())
	}
	writeBytes(w, r.Data)
	w.printf("\n")
}
