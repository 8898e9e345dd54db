package grpcserver

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbindex/domain/rbtree"
	"rbindex/service"
)

// Client is a typed client for rbindex.v1.IndexService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Insert(ctx context.Context, key int64, opts ...grpc.CallOption) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, InsertMethod, wrapperspb.Int64(key), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Delete(ctx context.Context, key int64, opts ...grpc.CallOption) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, DeleteMethod, wrapperspb.Int64(key), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// Search returns a NotFound status error when key is absent.
func (c *Client) Search(ctx context.Context, key int64, opts ...grpc.CallOption) (service.Entry, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SearchMethod, wrapperspb.Int64(key), out, opts...); err != nil {
		return service.Entry{}, err
	}
	return parseEntry(out)
}

func (c *Client) InOrder(ctx context.Context, opts ...grpc.CallOption) ([]service.Entry, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, InOrderMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	entries := make([]service.Entry, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		e, err := parseEntry(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (service.Stats, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StatsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return service.Stats{}, err
	}
	f := out.GetFields()
	st := service.Stats{
		Size:        int(f["size"].GetNumberValue()),
		Height:      int(f["height"].GetNumberValue()),
		BlackHeight: int(f["black_height"].GetNumberValue()),
		Unique:      f["unique"].GetBoolValue(),
	}
	minV, hasMin := f["min"]
	maxV, hasMax := f["max"]
	if !hasMin || !hasMax {
		return st, nil
	}
	var err error
	if st.Min, err = parseKey(minV.GetStringValue()); err != nil {
		return service.Stats{}, err
	}
	if st.Max, err = parseKey(maxV.GetStringValue()); err != nil {
		return service.Stats{}, err
	}
	st.Bounded = true
	return st, nil
}

func parseEntry(s *structpb.Struct) (service.Entry, error) {
	f := s.GetFields()
	key, err := parseKey(f["key"].GetStringValue())
	if err != nil {
		return service.Entry{}, err
	}
	var color rbtree.Color
	switch c := f["color"].GetStringValue(); c {
	case "R":
		color = rbtree.Red
	case "B":
		color = rbtree.Black
	default:
		return service.Entry{}, errors.Errorf("unknown color %q", c)
	}
	return service.Entry{Key: key, Color: color}, nil
}

func formatKey(k int64) string { return strconv.FormatInt(k, 10) }

func parseKey(s string) (int64, error) {
	k, err := strconv.ParseInt(s, 10, 64)
	return k, errors.Wrapf(err, "parse key %q", s)
}
