// Package codec moves tasks across process and storage boundaries as a
// fixed, positional MessagePack tuple.
//
// The tuple follows the signature (xsbxxibxsx): int64 id, string name, bool
// done, int64 project, int64 section, int32 position, bool suspended, int64
// parent, string description, int64 date. Integers are always written with
// their full width so a reader can check the schema byte for byte.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/existflow/irontrack/internal/model"
)

// ContentType is used when a payload travels over HTTP
const ContentType = "application/x-msgpack"

const signature = "(xsbxxibxsx)"

// minTaskSize is the smallest encoded task: array header, five int64, two
// empty strings, two bools and one int32
const minTaskSize = 1 + 5*9 + 2 + 2 + 5

// Signature returns the tuple signature
func Signature() string {
	return signature
}

// Encode serializes all ten task fields in declaration order
func Encode(t *model.Task) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeTask(enc, t); err != nil {
		return nil, fmt.Errorf("encode task %d: %w", t.ID(), err)
	}
	return buf.Bytes(), nil
}

// Decode parses a payload produced by Encode. It returns false when the
// payload does not match the signature exactly.
func Decode(payload []byte) (*model.Task, bool) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	t, ok := decodeTask(dec)
	if !ok || !atEOF(dec) {
		return nil, false
	}
	return t, true
}

// EncodeList serializes several tasks as an array of tuples
func EncodeList(tasks []*model.Task) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(tasks)); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := encodeTask(enc, t); err != nil {
			return nil, fmt.Errorf("encode task %d: %w", t.ID(), err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeList parses a payload produced by EncodeList. Any malformed element
// rejects the whole payload.
func DecodeList(payload []byte) ([]*model.Task, bool) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	n, err := dec.DecodeArrayLen()
	if err != nil || n < 0 || n > len(payload)/minTaskSize {
		return nil, false
	}
	tasks := make([]*model.Task, 0, n)
	for i := 0; i < n; i++ {
		t, ok := decodeTask(dec)
		if !ok {
			return nil, false
		}
		tasks = append(tasks, t)
	}
	if !atEOF(dec) {
		return nil, false
	}
	return tasks, true
}

func encodeTask(enc *msgpack.Encoder, t *model.Task) error {
	if err := enc.EncodeArrayLen(len(signature) - 2); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return enc.EncodeInt64(t.ID()) },
		func() error { return enc.EncodeString(t.Name()) },
		func() error { return enc.EncodeBool(t.Done()) },
		func() error { return enc.EncodeInt64(t.Project()) },
		func() error { return enc.EncodeInt64(t.Section()) },
		func() error { return enc.EncodeInt32(t.Position()) },
		func() error { return enc.EncodeBool(t.Suspended()) },
		func() error { return enc.EncodeInt64(t.Parent()) },
		func() error { return enc.EncodeString(t.Description()) },
		func() error { return enc.EncodeInt64(t.Date()) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func decodeTask(dec *msgpack.Decoder) (*model.Task, bool) {
	n, err := dec.DecodeArrayLen()
	if err != nil || n != len(model.TaskFields) {
		return nil, false
	}

	values := make([]any, 0, n)
	for _, kind := range signature[1 : len(signature)-1] {
		v, ok := decodeElement(dec, byte(kind))
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}

	t, err := model.TaskFromValues(values)
	if err != nil {
		return nil, false
	}
	return t, true
}

// decodeElement reads one value whose msgpack code must match kind
func decodeElement(dec *msgpack.Decoder, kind byte) (any, bool) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, false
	}

	switch kind {
	case 'x':
		if code != msgpcode.Int64 {
			return nil, false
		}
		v, err := dec.DecodeInt64()
		return v, err == nil
	case 'i':
		if code != msgpcode.Int32 {
			return nil, false
		}
		v, err := dec.DecodeInt32()
		return v, err == nil
	case 'b':
		if code != msgpcode.True && code != msgpcode.False {
			return nil, false
		}
		v, err := dec.DecodeBool()
		return v, err == nil
	case 's':
		if !isString(code) {
			return nil, false
		}
		v, err := dec.DecodeString()
		return v, err == nil
	}
	return nil, false
}

func isString(code byte) bool {
	if code >= msgpcode.FixedStrLow && code <= msgpcode.FixedStrHigh {
		return true
	}
	return code == msgpcode.Str8 || code == msgpcode.Str16 || code == msgpcode.Str32
}

func atEOF(dec *msgpack.Decoder) bool {
	_, err := dec.PeekCode()
	return err == io.EOF
}
