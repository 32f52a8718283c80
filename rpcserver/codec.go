// Copyright 2024 The Nsdb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package rpcserver

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nsdb/nsdb/util"
)

// decodeEnvelope unwraps one BytesValue -- the only protobuf message this
// service's wire format needs -- and JSON-decodes its payload into out.
func decodeEnvelope(env *wrapperspb.BytesValue, out interface{}) error {
	if env == nil {
		return nil
	}
	return json.Unmarshal(env.GetValue(), out)
}

// encodeEnvelope marshals v into a pooled buffer -- every RPC response
// takes this path, so the scratch buffer is worth reusing rather than
// letting json.Marshal allocate a fresh one per call.
func encodeEnvelope(v interface{}) (*wrapperspb.BytesValue, error) {
	buf := util.GetBufferWriter(256)
	defer util.PutBufferWriter(buf)
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	b := buf.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return wrapperspb.Bytes(out), nil
}
