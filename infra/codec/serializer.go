package codec

import (
	"encoding/json"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"rbindex/domain/event"
)

// Serializer turns change events into broker payloads and back.
type Serializer interface {
	Name() string
	Encode(*event.Change) ([]byte, error)
	Decode([]byte) (*event.Change, error)
}

var ErrUnknownFormat = errors.New("codec: unknown format")

// ForName returns the serializer registered as "json" or "proto".
func ForName(name string) (Serializer, error) {
	switch name {
	case "json", "":
		return JSONSerializer{}, nil
	case "proto", "protobuf":
		return ProtoSerializer{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
}

// ---------- JSON ----------

const jsonVersion = 1

type jsonChange struct {
	V    int    `json:"v"`
	Seq  uint64 `json:"seq"`
	Op   string `json:"op"`
	Key  int64  `json:"key"`
	Time int64  `json:"time"`
	Size int    `json:"size"`
}

type JSONSerializer struct{}

func (JSONSerializer) Name() string { return "json" }

func (JSONSerializer) Encode(c *event.Change) ([]byte, error) {
	return json.Marshal(jsonChange{
		V:    jsonVersion,
		Seq:  c.Seq,
		Op:   c.Op.String(),
		Key:  c.Key,
		Time: c.Time,
		Size: c.Size,
	})
}

func (JSONSerializer) Decode(b []byte) (*event.Change, error) {
	var j jsonChange
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, errors.Wrap(err, "decode json change")
	}
	if j.V != jsonVersion {
		return nil, errors.Errorf("decode json change: unsupported version %d", j.V)
	}
	op, ok := event.ParseOp(j.Op)
	if !ok {
		return nil, errors.Errorf("decode json change: unknown op %q", j.Op)
	}
	return &event.Change{Seq: j.Seq, Op: op, Key: j.Key, Time: j.Time, Size: j.Size}, nil
}

// ---------- Protobuf ----------

// Field numbers of the Change message:
//
//	message Change {
//	  uint64 seq  = 1;
//	  uint32 op   = 2;
//	  sint64 key  = 3;
//	  int64  time = 4;
//	  int64  size = 5;
//	}
const (
	fieldSeq  protowire.Number = 1
	fieldOp   protowire.Number = 2
	fieldKey  protowire.Number = 3
	fieldTime protowire.Number = 4
	fieldSize protowire.Number = 5
)

type ProtoSerializer struct{}

func (ProtoSerializer) Name() string { return "proto" }

func (ProtoSerializer) Encode(c *event.Change) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, c.Seq)
	b = protowire.AppendTag(b, fieldOp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Op))
	b = protowire.AppendTag(b, fieldKey, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(c.Key))
	b = protowire.AppendTag(b, fieldTime, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Time))
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Size))
	return b, nil
}

func (ProtoSerializer) Decode(b []byte) (*event.Change, error) {
	c := &event.Change{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "decode proto change")
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "decode proto change")
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "decode proto change")
		}
		b = b[n:]

		switch num {
		case fieldSeq:
			c.Seq = v
		case fieldOp:
			c.Op = event.Op(v)
		case fieldKey:
			c.Key = protowire.DecodeZigZag(v)
		case fieldTime:
			c.Time = int64(v)
		case fieldSize:
			c.Size = int(v)
		}
	}
	if c.Op != event.OpInsert && c.Op != event.OpDelete {
		return nil, errors.Errorf("decode proto change: unknown op %d", c.Op)
	}
	return c, nil
}
