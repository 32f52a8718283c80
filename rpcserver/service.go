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

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NsdbServer is the service HandlerType grpc.ServiceDesc registration
// checks *Server against. Mirrors the method set a protoc-gen-go-grpc
// NsdbServer interface would declare for spec.md §6's command set, minus
// Login/OpenDatabase (no auth/multi-db story in this module, see
// DESIGN.md) and SubscribeUpdates (server-streaming, served separately by
// repl.Publisher subscribers rather than over this RPC surface).
type NsdbServer interface {
	Select(ctx context.Context, req *SelectRequest) (*SelectResponse, error)
	Insert(ctx context.Context, req *DocRequest) (*DocResponse, error)
	Update(ctx context.Context, req *DocRequest) (*DocResponse, error)
	Upsert(ctx context.Context, req *DocRequest) (*DocResponse, error)
	Delete(ctx context.Context, req *DocRequest) (*DocResponse, error)
	BeginTxn(ctx context.Context, req *TxnBeginRequest) (*TxnBeginResponse, error)
	TxnStep(ctx context.Context, req *TxnStepRequest) (*TxnStepResponse, error)
	CommitTxn(ctx context.Context, req *TxnEndRequest) (*TxnEndResponse, error)
	RollbackTxn(ctx context.Context, req *TxnEndRequest) (*TxnEndResponse, error)
	CreateNamespace(ctx context.Context, req *CreateNamespaceRequest) (*CreateNamespaceResponse, error)
	CreateIndex(ctx context.Context, req *CreateIndexRequest) (*CreateIndexResponse, error)
}

// wrapHandler builds a grpc.MethodDesc.Handler out of a typed call
// function, the part protoc-gen-go-grpc would otherwise generate per RPC.
func wrapHandler(fullMethod string, call func(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		env := new(wrapperspb.BytesValue)
		if err := dec(env); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(NsdbServer), env)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, srv.(NsdbServer), req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, env, info, handler)
	}
}

func selectCall(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := new(SelectRequest)
	if err := decodeEnvelope(env, req); err != nil {
		return nil, err
	}
	resp, err := srv.Select(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeEnvelope(resp)
}

func docCall(method func(NsdbServer, context.Context, *DocRequest) (*DocResponse, error)) func(context.Context, NsdbServer, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return func(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
		req := new(DocRequest)
		if err := decodeEnvelope(env, req); err != nil {
			return nil, err
		}
		resp, err := method(srv, ctx, req)
		if err != nil {
			return nil, err
		}
		return encodeEnvelope(resp)
	}
}

func beginTxnCall(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := new(TxnBeginRequest)
	if err := decodeEnvelope(env, req); err != nil {
		return nil, err
	}
	resp, err := srv.BeginTxn(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeEnvelope(resp)
}

func txnStepCall(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := new(TxnStepRequest)
	if err := decodeEnvelope(env, req); err != nil {
		return nil, err
	}
	resp, err := srv.TxnStep(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeEnvelope(resp)
}

func txnEndCall(method func(NsdbServer, context.Context, *TxnEndRequest) (*TxnEndResponse, error)) func(context.Context, NsdbServer, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return func(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
		req := new(TxnEndRequest)
		if err := decodeEnvelope(env, req); err != nil {
			return nil, err
		}
		resp, err := method(srv, ctx, req)
		if err != nil {
			return nil, err
		}
		return encodeEnvelope(resp)
	}
}

func createNamespaceCall(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := new(CreateNamespaceRequest)
	if err := decodeEnvelope(env, req); err != nil {
		return nil, err
	}
	resp, err := srv.CreateNamespace(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeEnvelope(resp)
}

func createIndexCall(ctx context.Context, srv NsdbServer, env *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req := new(CreateIndexRequest)
	if err := decodeEnvelope(env, req); err != nil {
		return nil, err
	}
	resp, err := srv.CreateIndex(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeEnvelope(resp)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "nsdb.Nsdb",
	HandlerType: (*NsdbServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Select", Handler: wrapHandler("/nsdb.Nsdb/Select", selectCall)},
		{MethodName: "Insert", Handler: wrapHandler("/nsdb.Nsdb/Insert", docCall(func(s NsdbServer, ctx context.Context, r *DocRequest) (*DocResponse, error) { return s.Insert(ctx, r) }))},
		{MethodName: "Update", Handler: wrapHandler("/nsdb.Nsdb/Update", docCall(func(s NsdbServer, ctx context.Context, r *DocRequest) (*DocResponse, error) { return s.Update(ctx, r) }))},
		{MethodName: "Upsert", Handler: wrapHandler("/nsdb.Nsdb/Upsert", docCall(func(s NsdbServer, ctx context.Context, r *DocRequest) (*DocResponse, error) { return s.Upsert(ctx, r) }))},
		{MethodName: "Delete", Handler: wrapHandler("/nsdb.Nsdb/Delete", docCall(func(s NsdbServer, ctx context.Context, r *DocRequest) (*DocResponse, error) { return s.Delete(ctx, r) }))},
		{MethodName: "BeginTxn", Handler: wrapHandler("/nsdb.Nsdb/BeginTxn", beginTxnCall)},
		{MethodName: "TxnStep", Handler: wrapHandler("/nsdb.Nsdb/TxnStep", txnStepCall)},
		{MethodName: "CommitTxn", Handler: wrapHandler("/nsdb.Nsdb/CommitTxn", txnEndCall(func(s NsdbServer, ctx context.Context, r *TxnEndRequest) (*TxnEndResponse, error) { return s.CommitTxn(ctx, r) }))},
		{MethodName: "RollbackTxn", Handler: wrapHandler("/nsdb.Nsdb/RollbackTxn", txnEndCall(func(s NsdbServer, ctx context.Context, r *TxnEndRequest) (*TxnEndResponse, error) { return s.RollbackTxn(ctx, r) }))},
		{MethodName: "CreateNamespace", Handler: wrapHandler("/nsdb.Nsdb/CreateNamespace", createNamespaceCall)},
		{MethodName: "CreateIndex", Handler: wrapHandler("/nsdb.Nsdb/CreateIndex", createIndexCall)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcserver/service.go",
}
