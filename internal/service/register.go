package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/finalize"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// MutatingProcedures need an operator token when auth is enabled.
var MutatingProcedures = []string{
	apiconnect.GroupServiceCreateGroupProcedure,
	apiconnect.GroupServiceDeleteGroupProcedure,
	apiconnect.GroupServiceAddMemberProcedure,
	apiconnect.GroupServiceRemoveMemberProcedure,
	apiconnect.GroupServiceUpdateMemberWalletProcedure,
	apiconnect.GroupServiceAddExpenseProcedure,
	apiconnect.SettlementServiceRecordCommitProcedure,
}

// Options configures the shared interceptors. Both fields may be nil; a nil
// JWT manager disables authentication.
type Options struct {
	JWT     *auth.JWTManager
	Metrics *metrics.Metrics
}

// Register mounts both services on mux.
func Register(mux *http.ServeMux, store storage.Store, finalizer *finalize.Finalizer, opts Options) {
	var interceptors []connect.Interceptor
	if opts.JWT != nil {
		interceptors = append(interceptors, middleware.RequireAuth(opts.JWT, MutatingProcedures...))
	}
	interceptors = append(interceptors, middleware.LoggingInterceptor(opts.Metrics))
	handlerOpts := connect.WithInterceptors(interceptors...)

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store), handlerOpts)
	mux.Handle(groupPath, groupHandler)

	settlementPath, settlementHandler := apiconnect.NewSettlementServiceHandler(NewSettlementService(store, finalizer), handlerOpts)
	mux.Handle(settlementPath, settlementHandler)
}
