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
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeNsdbServer struct {
	lastSelect *SelectRequest
	lastDoc    *DocRequest
}

func (s *fakeNsdbServer) Select(ctx context.Context, req *SelectRequest) (*SelectResponse, error) {
	s.lastSelect = req
	return &SelectResponse{Ids: []int{1, 2}}, nil
}
func (s *fakeNsdbServer) Insert(ctx context.Context, req *DocRequest) (*DocResponse, error) {
	s.lastDoc = req
	return &DocResponse{Id: 1}, nil
}
func (s *fakeNsdbServer) Update(ctx context.Context, req *DocRequest) (*DocResponse, error) {
	return &DocResponse{}, nil
}
func (s *fakeNsdbServer) Upsert(ctx context.Context, req *DocRequest) (*DocResponse, error) {
	return &DocResponse{}, nil
}
func (s *fakeNsdbServer) Delete(ctx context.Context, req *DocRequest) (*DocResponse, error) {
	return &DocResponse{}, nil
}
func (s *fakeNsdbServer) BeginTxn(ctx context.Context, req *TxnBeginRequest) (*TxnBeginResponse, error) {
	return &TxnBeginResponse{TxnID: "t1"}, nil
}
func (s *fakeNsdbServer) TxnStep(ctx context.Context, req *TxnStepRequest) (*TxnStepResponse, error) {
	return &TxnStepResponse{}, nil
}
func (s *fakeNsdbServer) CommitTxn(ctx context.Context, req *TxnEndRequest) (*TxnEndResponse, error) {
	return &TxnEndResponse{Applied: 1}, nil
}
func (s *fakeNsdbServer) RollbackTxn(ctx context.Context, req *TxnEndRequest) (*TxnEndResponse, error) {
	return &TxnEndResponse{}, nil
}
func (s *fakeNsdbServer) CreateNamespace(ctx context.Context, req *CreateNamespaceRequest) (*CreateNamespaceResponse, error) {
	return &CreateNamespaceResponse{}, nil
}
func (s *fakeNsdbServer) CreateIndex(ctx context.Context, req *CreateIndexRequest) (*CreateIndexResponse, error) {
	return &CreateIndexResponse{}, nil
}

func TestSelectCallRoundTrips(t *testing.T) {
	env, err := encodeEnvelope(SelectRequest{Namespace: "items", SQL: "SELECT *"})
	require.NoError(t, err)

	srv := &fakeNsdbServer{}
	out, err := selectCall(context.Background(), srv, env)
	require.NoError(t, err)
	require.Equal(t, "items", srv.lastSelect.Namespace)

	var resp SelectResponse
	require.NoError(t, decodeEnvelope(out, &resp))
	require.Equal(t, []int{1, 2}, resp.Ids)
}

func TestDocCallRoundTrips(t *testing.T) {
	call := docCall(func(s NsdbServer, ctx context.Context, r *DocRequest) (*DocResponse, error) {
		return s.Insert(ctx, r)
	})
	env, err := encodeEnvelope(DocRequest{Namespace: "items", Doc: map[string]interface{}{"id": float64(1)}})
	require.NoError(t, err)

	srv := &fakeNsdbServer{}
	out, err := call(context.Background(), srv, env)
	require.NoError(t, err)
	require.Equal(t, "items", srv.lastDoc.Namespace)

	var resp DocResponse
	require.NoError(t, decodeEnvelope(out, &resp))
	require.Equal(t, 1, resp.Id)
}

func TestWrapHandlerWithoutInterceptorInvokesCall(t *testing.T) {
	handler := wrapHandler("/nsdb.Nsdb/Select", selectCall)
	env, err := encodeEnvelope(SelectRequest{Namespace: "items"})
	require.NoError(t, err)

	srv := &fakeNsdbServer{}
	dec := func(out interface{}) error {
		*out.(*wrapperspb.BytesValue) = *env
		return nil
	}

	resp, err := handler(srv, context.Background(), dec, nil)
	require.NoError(t, err)
	require.NotNil(t, resp)
}

func TestServiceDescMethodNames(t *testing.T) {
	var names []string
	for _, m := range serviceDesc.Methods {
		names = append(names, m.MethodName)
	}
	require.Contains(t, names, "Select")
	require.Contains(t, names, "CreateIndex")
	require.Equal(t, "nsdb.Nsdb", serviceDesc.ServiceName)
}
