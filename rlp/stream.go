package rlp

import (
	"fmt"
	"io"
	"math/big"
	"reflect"
)

// Stream reads successive RLP items from an underlying byte slice, keeping
// a stack of list boundaries so List/ListEnd can validate structure the
// way the Proposal/Vote DecodeRLP methods in consensus/tendermint/message
// rely on.
type Stream struct {
	data  []byte
	pos   int
	stack []int // end offsets of open lists
	limit uint64
}

// NewStream creates a Stream reading from r, consuming at most limit bytes.
func NewStream(r io.Reader, limit uint64) *Stream {
	buf, _ := io.ReadAll(r)
	if limit > 0 && uint64(len(buf)) > limit {
		buf = buf[:limit]
	}
	return &Stream{data: buf, limit: limit}
}

func (s *Stream) boundary() int {
	if len(s.stack) == 0 {
		return len(s.data)
	}
	return s.stack[len(s.stack)-1]
}

// header reads the next item's header without consuming the payload,
// returning whether it is a list, the payload offset and its length.
func (s *Stream) header() (isList bool, payloadStart, payloadLen int, err error) {
	end := s.boundary()
	if s.pos >= end {
		return false, 0, 0, io.EOF
	}
	b := s.data[s.pos]
	switch {
	case b < 0x80:
		return false, s.pos, 1, nil
	case b < 0xb8:
		l := int(b - 0x80)
		return false, s.pos + 1, l, nil
	case b < 0xc0:
		n := int(b - 0xb7)
		if s.pos+1+n > end {
			return false, 0, 0, ErrValueTooLarge
		}
		l := decodeLen(s.data[s.pos+1 : s.pos+1+n])
		return false, s.pos + 1 + n, l, nil
	case b < 0xf8:
		l := int(b - 0xc0)
		return true, s.pos + 1, l, nil
	default:
		n := int(b - 0xf7)
		if s.pos+1+n > end {
			return true, 0, 0, ErrValueTooLarge
		}
		l := decodeLen(s.data[s.pos+1 : s.pos+1+n])
		return true, s.pos + 1 + n, l, nil
	}
}

func decodeLen(b []byte) int {
	n := 0
	for _, c := range b {
		n = n<<8 | int(c)
	}
	return n
}

// List enters a list item, returning the number of bytes in its body.
func (s *Stream) List() (size uint64, err error) {
	isList, start, l, err := s.header()
	if err != nil {
		return 0, err
	}
	if !isList {
		return 0, ErrExpectedList
	}
	if start+l > s.boundary() {
		return 0, ErrElemTooLarge
	}
	s.pos = start
	s.stack = append(s.stack, start+l)
	return uint64(l), nil
}

// ListEnd closes the most recently opened list, failing if it was not
// fully consumed.
func (s *Stream) ListEnd() error {
	if len(s.stack) == 0 {
		return errors_newf("rlp: ListEnd without List")
	}
	end := s.stack[len(s.stack)-1]
	if s.pos != end {
		return errors_newf("rlp: %d leftover bytes in list", end-s.pos)
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Bytes reads the next item as a byte string.
func (s *Stream) Bytes() ([]byte, error) {
	isList, start, l, err := s.header()
	if err != nil {
		return nil, err
	}
	if isList {
		return nil, ErrExpectedString
	}
	if start+l > s.boundary() {
		return nil, ErrElemTooLarge
	}
	out := append([]byte(nil), s.data[start:start+l]...)
	s.pos = start + l
	return out, nil
}

// Uint64 reads the next item as an unsigned integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, ErrCanonSize
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}

// Raw returns the raw encoding of the next item without decoding it.
func (s *Stream) Raw() ([]byte, error) {
	isList, start, l, err := s.header()
	if err != nil {
		return nil, err
	}
	headLen := start - s.pos
	total := headLen + l
	if s.pos+total > s.boundary() {
		return nil, ErrElemTooLarge
	}
	out := append([]byte(nil), s.data[s.pos:s.pos+total]...)
	s.pos += total
	_ = isList
	return out, nil
}

// Decode decodes the next value into val, which must be a non-nil pointer.
// Types implementing Decoder get first refusal; otherwise Decode falls
// back to a reflection-driven decode matching Encode's struct/slice rules.
func (s *Stream) Decode(val interface{}) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("rlp: Decode requires non-nil pointer, got %T", val)
	}
	return s.decodeValue(rv.Elem())
}

func (s *Stream) decodeValue(v reflect.Value) error {
	if v.CanAddr() && v.Addr().CanInterface() {
		if dec, ok := v.Addr().Interface().(Decoder); ok {
			return dec.DecodeRLP(s)
		}
	}
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return s.decodeValue(v.Elem())
	case reflect.String:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil
	case reflect.Bool:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetBool(len(b) == 1 && b[0] == 1)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(n)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
		return nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			if v.Kind() == reflect.Array {
				reflect.Copy(v, reflect.ValueOf(b))
				return nil
			}
			v.SetBytes(b)
			return nil
		}
		size, err := s.List()
		if err != nil {
			return err
		}
		_ = size
		var elems []reflect.Value
		for {
			if s.pos == s.boundary() {
				break
			}
			el := reflect.New(v.Type().Elem()).Elem()
			if err := s.decodeValue(el); err != nil {
				return err
			}
			elems = append(elems, el)
		}
		if err := s.ListEnd(); err != nil {
			return err
		}
		if v.Kind() == reflect.Array {
			for i, el := range elems {
				v.Index(i).Set(el)
			}
			return nil
		}
		sl := reflect.MakeSlice(v.Type(), len(elems), len(elems))
		for i, el := range elems {
			sl.Index(i).Set(el)
		}
		v.Set(sl)
		return nil
	case reflect.Struct:
		if v.Type() == reflect.TypeOf(big.Int{}) {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(*new(big.Int).SetBytes(b)))
			return nil
		}
		if _, err := s.List(); err != nil {
			return err
		}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			if tag := f.Tag.Get("rlp"); tag == "-" {
				continue
			}
			if err := s.decodeValue(v.Field(i)); err != nil {
				return err
			}
		}
		return s.ListEnd()
	default:
		return fmt.Errorf("rlp: unsupported type %s", v.Type())
	}
}

func errors_newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
