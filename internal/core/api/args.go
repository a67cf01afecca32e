package api

import (
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// args reads typed request fields out of a Struct. Missing or mistyped
// fields become INVALID_ARGUMENT.
type args struct {
	fields map[string]*structpb.Value
}

func argsOf(in *structpb.Struct) args {
	return args{fields: in.GetFields()}
}

func (a args) has(name string) bool {
	_, ok := a.fields[name]
	return ok
}

func (a args) num(name string) (int, error) {
	v, ok := a.fields[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	return toInt(name, v)
}

func toInt(name string, v *structpb.Value) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be an integer", name)
	}
	return int(f), nil
}

func (a args) nums(name string) ([]int, error) {
	v, ok := a.fields[name]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "field %q must be a list", name)
	}
	out := make([]int, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		n, err := toInt(name, item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (a args) str(name string) (string, error) {
	v, ok := a.fields[name]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", status.Errorf(codes.InvalidArgument, "field %q must be a non-empty string", name)
	}
	return s.StringValue, nil
}

func (a args) optStr(name string) string {
	return a.fields[name].GetStringValue()
}

func (a args) flag(name string) bool {
	return a.fields[name].GetBoolValue()
}
