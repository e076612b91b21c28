// Package rlp is the length-prefixed typed-envelope codec this core needs
// a concrete canonical encoding for persisted types (headers, bodies, receipts, votes, proofs)
// so it is reimplemented here in the go-ethereum idiom: an Encoder/Decoder
// pair of interfaces (see consensus/tendermint/message/message.go's
// EncodeRLP/DecodeRLP methods) plus a reflection-driven fallback for plain
// structs, slices and scalars — Ethereum's RLP encoding.
package rlp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"
)

var (
	ErrExpectedString = errors.New("rlp: expected string or byte")
	ErrExpectedList    = errors.New("rlp: expected list")
	ErrCanonSize       = errors.New("rlp: non-canonical size information")
	ErrElemTooLarge    = errors.New("rlp: element is larger than containing list")
	ErrValueTooLarge   = errors.New("rlp: value size exceeds available input length")
)

// Encoder is implemented by types that encode themselves, mirroring the
// Proposal/Vote EncodeRLP methods in consensus/tendermint/message.
type Encoder interface {
	EncodeRLP(io.Writer) error
}

// Decoder is implemented by types that decode themselves from a Stream.
type Decoder interface {
	DecodeRLP(*Stream) error
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the RLP encoding of val to w.
func Encode(w io.Writer, val interface{}) error {
	b, err := encodeToBytes(reflect.ValueOf(val))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func encodeToBytes(v reflect.Value) ([]byte, error) {
	if !v.IsValid() {
		return encodeString(nil), nil
	}
	if v.CanInterface() {
		if enc, ok := v.Interface().(Encoder); ok {
			var buf bytes.Buffer
			if err := enc.EncodeRLP(&buf); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}
	}
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return encodeString(nil), nil
		}
		return encodeToBytes(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return encodeString(nil), nil
		}
		return encodeToBytes(v.Elem())
	case reflect.String:
		return encodeString([]byte(v.String())), nil
	case reflect.Bool:
		if v.Bool() {
			return []byte{0x01}, nil
		}
		return []byte{0x80}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeUint(v.Uint()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < 0 {
			return nil, fmt.Errorf("rlp: cannot encode negative int %d", n)
		}
		return encodeUint(uint64(n)), nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeString(toBytes(v)), nil
		}
		var items [][]byte
		for i := 0; i < v.Len(); i++ {
			b, err := encodeToBytes(v.Index(i))
			if err != nil {
				return nil, err
			}
			items = append(items, b)
		}
		return encodeList(items), nil
	case reflect.Struct:
		if bi, ok := v.Interface().(big.Int); ok {
			return encodeString(bi.Bytes()), nil
		}
		var items [][]byte
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" { // unexported
				continue
			}
			if tag := f.Tag.Get("rlp"); tag == "-" {
				continue
			}
			b, err := encodeToBytes(v.Field(i))
			if err != nil {
				return nil, err
			}
			items = append(items, b)
		}
		return encodeList(items), nil
	case reflect.Map:
		keys := v.MapKeys()
		var items [][]byte
		for _, k := range keys {
			kb, err := encodeToBytes(k)
			if err != nil {
				return nil, err
			}
			vb, err := encodeToBytes(v.MapIndex(k))
			if err != nil {
				return nil, err
			}
			items = append(items, encodeList([][]byte{kb, vb}))
		}
		return encodeList(items), nil
	default:
		return nil, fmt.Errorf("rlp: unsupported type %s", v.Type())
	}
}

func toBytes(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return v.Bytes()
	}
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

func encodeUint(n uint64) []byte {
	if n == 0 {
		return encodeString(nil)
	}
	var buf [8]byte
	i := 8
	for n > 0 {
		i--
		buf[i] = byte(n)
		n >>= 8
	}
	return encodeString(buf[i:])
}

func encodeString(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	head := headerBytes(0x80, len(b))
	return append(head, b...)
}

func encodeList(items [][]byte) []byte {
	var body []byte
	for _, it := range items {
		body = append(body, it...)
	}
	head := headerBytes(0xc0, len(body))
	return append(head, body...)
}

func headerBytes(base byte, size int) []byte {
	if size < 56 {
		return []byte{base + byte(size)}
	}
	var sizeBytes []byte
	n := size
	for n > 0 {
		sizeBytes = append([]byte{byte(n)}, sizeBytes...)
		n >>= 8
	}
	return append([]byte{base + 55 + byte(len(sizeBytes))}, sizeBytes...)
}

// DecodeBytes parses RLP-encoded data from b into val, which must be a
// non-nil pointer.
func DecodeBytes(b []byte, val interface{}) error {
	s := NewStream(bytes.NewReader(b), uint64(len(b)))
	return s.Decode(val)
}
