package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns messages into frames. Both codecs share the json field names.
type Codec interface {
	Name() string
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, v any) error
}

var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecFor picks a codec by its query-string name, defaulting to JSON.
func CodecFor(name string) Codec {
	if name == MsgPack.Name() {
		return MsgPack
	}
	return JSON
}

type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) Binary() bool                    { return false }
func (jsonCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (jsonCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(b []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// ServerMessage is anything the server sends.
type ServerMessage interface {
	Kind() Kind
	stamp(Kind)
}

// Encode stamps the message's kind into its envelope and marshals it.
func Encode(c Codec, m ServerMessage) ([]byte, error) {
	m.stamp(m.Kind())
	return c.Marshal(m)
}
