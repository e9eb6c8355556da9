/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoLoader implements Loader for rows stored as a google.protobuf.ListValue
// of Struct values.
//
// Required options:
//   - url: location of the data file
//
// Optional options:
//   - format: "json", "textproto" or "binary" (inferred from the extension
//     .json, .textproto/.txtpb or .binpb/.pb when not set)
type ProtoLoader struct {
	fs afs.Service
}

// NewProtoLoader creates a proto loader. A nil fs uses afs.New().
func NewProtoLoader(fs afs.Service) *ProtoLoader {
	if fs == nil {
		fs = afs.New()
	}
	return &ProtoLoader{fs: fs}
}

// SourceType returns "proto".
func (l *ProtoLoader) SourceType() string {
	return "proto"
}

func protoFormat(options map[string]string, URL string) string {
	if f := options["format"]; f != "" {
		return f
	}
	switch strings.ToLower(path.Ext(URL)) {
	case ".textproto", ".txtpb":
		return "textproto"
	case ".binpb", ".pb":
		return "binary"
	}
	return "json"
}

// UnmarshalRows decodes a ListValue of Structs in the given format.
func UnmarshalRows(data []byte, format string) ([]map[string]any, error) {
	list := &structpb.ListValue{}
	var err error
	switch format {
	case "json":
		err = protojson.Unmarshal(data, list)
	case "textproto":
		err = prototext.Unmarshal(data, list)
	case "binary":
		err = proto.Unmarshal(data, list)
	default:
		return nil, fmt.Errorf("unknown proto format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s rows: %w", format, err)
	}
	out := make([]map[string]any, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("row %d is not a struct", i)
		}
		out = append(out, s.AsMap())
	}
	return out, nil
}

// MarshalRows encodes rows as a ListValue of Structs.
func MarshalRows(rows []map[string]any) (*structpb.ListValue, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(rows))}
	for i, r := range rows {
		s, err := structpb.NewStruct(normalise(r))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		list.Values = append(list.Values, structpb.NewStructValue(s))
	}
	return list, nil
}

// normalise converts values structpb cannot hold as they are.
func normalise(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		switch v := v.(type) {
		case nil, bool, string, float64, float32, int, int32, int64, uint32, uint64, map[string]any, []any:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// DiscoverSchema loads the rows and infers their fields.
func (l *ProtoLoader) DiscoverSchema(ctx context.Context, options map[string]string) (*TableSchema, error) {
	rows, err := l.Load(ctx, options)
	if err != nil {
		return nil, err
	}
	return InferSchema(rows, nil), nil
}

// Load downloads and decodes the rows.
func (l *ProtoLoader) Load(ctx context.Context, options map[string]string) ([]map[string]any, error) {
	URL, err := option(options, "url")
	if err != nil {
		return nil, err
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read proto file: %w", err)
	}
	return UnmarshalRows(data, protoFormat(options, URL))
}
