package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService.
const SettlementServiceName = "splitledger.v1.SettlementService"

// SettlementService procedure paths.
const (
	SettlementServiceBuildSettlementProcedure  = "/splitledger.v1.SettlementService/BuildSettlement"
	SettlementServiceVerifySettlementProcedure = "/splitledger.v1.SettlementService/VerifySettlement"
	SettlementServiceRecordCommitProcedure     = "/splitledger.v1.SettlementService/RecordCommit"
	SettlementServiceListRecordsProcedure      = "/splitledger.v1.SettlementService/ListRecords"
)

// SettlementServiceHandler is implemented by the server side of
// SettlementService.
type SettlementServiceHandler interface {
	BuildSettlement(context.Context, *connect.Request[api.BuildSettlementRequest]) (*connect.Response[api.BuildSettlementResponse], error)
	VerifySettlement(context.Context, *connect.Request[api.VerifySettlementRequest]) (*connect.Response[api.VerifySettlementResponse], error)
	RecordCommit(context.Context, *connect.Request[api.RecordCommitRequest]) (*connect.Response[api.RecordCommitResponse], error)
	ListRecords(context.Context, *connect.Request[api.ListRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	handlers := map[string]http.Handler{
		SettlementServiceBuildSettlementProcedure:  connect.NewUnaryHandler(SettlementServiceBuildSettlementProcedure, svc.BuildSettlement, opts...),
		SettlementServiceVerifySettlementProcedure: connect.NewUnaryHandler(SettlementServiceVerifySettlementProcedure, svc.VerifySettlement, opts...),
		SettlementServiceRecordCommitProcedure:     connect.NewUnaryHandler(SettlementServiceRecordCommitProcedure, svc.RecordCommit, opts...),
		SettlementServiceListRecordsProcedure:      connect.NewUnaryHandler(SettlementServiceListRecordsProcedure, svc.ListRecords, opts...),
	}
	return "/" + SettlementServiceName + "/", route(handlers)
}

// SettlementServiceClient is a client for SettlementService.
type SettlementServiceClient interface {
	BuildSettlement(context.Context, *connect.Request[api.BuildSettlementRequest]) (*connect.Response[api.BuildSettlementResponse], error)
	VerifySettlement(context.Context, *connect.Request[api.VerifySettlementRequest]) (*connect.Response[api.VerifySettlementResponse], error)
	RecordCommit(context.Context, *connect.Request[api.RecordCommitRequest]) (*connect.Response[api.RecordCommitResponse], error)
	ListRecords(context.Context, *connect.Request[api.ListRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error)
}

// NewSettlementServiceClient creates a SettlementService client for baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &settlementServiceClient{
		buildSettlement:  connect.NewClient[api.BuildSettlementRequest, api.BuildSettlementResponse](httpClient, baseURL+SettlementServiceBuildSettlementProcedure, opts...),
		verifySettlement: connect.NewClient[api.VerifySettlementRequest, api.VerifySettlementResponse](httpClient, baseURL+SettlementServiceVerifySettlementProcedure, opts...),
		recordCommit:     connect.NewClient[api.RecordCommitRequest, api.RecordCommitResponse](httpClient, baseURL+SettlementServiceRecordCommitProcedure, opts...),
		listRecords:      connect.NewClient[api.ListRecordsRequest, api.ListRecordsResponse](httpClient, baseURL+SettlementServiceListRecordsProcedure, opts...),
	}
}

type settlementServiceClient struct {
	buildSettlement  *connect.Client[api.BuildSettlementRequest, api.BuildSettlementResponse]
	verifySettlement *connect.Client[api.VerifySettlementRequest, api.VerifySettlementResponse]
	recordCommit     *connect.Client[api.RecordCommitRequest, api.RecordCommitResponse]
	listRecords      *connect.Client[api.ListRecordsRequest, api.ListRecordsResponse]
}

func (c *settlementServiceClient) BuildSettlement(ctx context.Context, req *connect.Request[api.BuildSettlementRequest]) (*connect.Response[api.BuildSettlementResponse], error) {
	return c.buildSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) VerifySettlement(ctx context.Context, req *connect.Request[api.VerifySettlementRequest]) (*connect.Response[api.VerifySettlementResponse], error) {
	return c.verifySettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) RecordCommit(ctx context.Context, req *connect.Request[api.RecordCommitRequest]) (*connect.Response[api.RecordCommitResponse], error) {
	return c.recordCommit.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListRecords(ctx context.Context, req *connect.Request[api.ListRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error) {
	return c.listRecords.CallUnary(ctx, req)
}
