package grpc

// proto.go defines the gRPC server interface of bib/finance/v1/finance.proto.
// It stands in for buf-generated code: messages are the application DTOs,
// carried by the json codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/finance-service/internal/application/dto"
)

const serviceName = "bib.finance.v1.FinanceService"

// FullMethod returns the full gRPC method name of a FinanceService method.
func FullMethod(method string) string { return "/" + serviceName + "/" + method }

// FinanceServiceServer is the server API for FinanceService.
type FinanceServiceServer interface {
	CreateLoan(context.Context, *dto.CreateLoanRequest) (*dto.OwnerResponse, error)
	CreateInstallmentPlan(context.Context, *dto.CreateInstallmentPlanRequest) (*dto.OwnerResponse, error)
	RegisterFixedAsset(context.Context, *dto.RegisterFixedAssetRequest) (*dto.OwnerResponse, error)
	PlaceAssetInService(context.Context, *dto.PlaceInServiceRequest) (*dto.OwnerResponse, error)
	Activate(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error)
	ApplyPayment(context.Context, *dto.ApplyPaymentRequest) (*dto.PaymentResponse, error)
	Restructure(context.Context, *dto.RestructureRequest) (*dto.OwnerResponse, error)
	Close(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error)
	Cancel(context.Context, *dto.CancelRequest) (*dto.OwnerResponse, error)
	MarkDefaulted(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error)
	GetOwner(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error)
	LateInterest(context.Context, *dto.LateInterestRequest) (*dto.LateInterestResponse, error)
	RunDepreciation(context.Context, *dto.RunDepreciationRequest) (*dto.DepreciationRunResponse, error)
	RetryPostings(context.Context, *dto.OwnerRequest) (*dto.RetryPostingsResponse, error)
	RevalueAsset(context.Context, *dto.RevalueAssetRequest) (*dto.OwnerResponse, error)
	AddToCost(context.Context, *dto.AddToCostRequest) (*dto.OwnerResponse, error)
	DisposeAsset(context.Context, *dto.DisposeAssetRequest) (*dto.OwnerResponse, error)
	mustEmbedUnimplementedFinanceServiceServer()
}

// UnimplementedFinanceServiceServer provides forward-compatible default implementations.
type UnimplementedFinanceServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedFinanceServiceServer) CreateLoan(context.Context, *dto.CreateLoanRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("CreateLoan")
}
func (UnimplementedFinanceServiceServer) CreateInstallmentPlan(context.Context, *dto.CreateInstallmentPlanRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("CreateInstallmentPlan")
}
func (UnimplementedFinanceServiceServer) RegisterFixedAsset(context.Context, *dto.RegisterFixedAssetRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("RegisterFixedAsset")
}
func (UnimplementedFinanceServiceServer) PlaceAssetInService(context.Context, *dto.PlaceInServiceRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("PlaceAssetInService")
}
func (UnimplementedFinanceServiceServer) Activate(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("Activate")
}
func (UnimplementedFinanceServiceServer) ApplyPayment(context.Context, *dto.ApplyPaymentRequest) (*dto.PaymentResponse, error) {
	return nil, unimplemented("ApplyPayment")
}
func (UnimplementedFinanceServiceServer) Restructure(context.Context, *dto.RestructureRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("Restructure")
}
func (UnimplementedFinanceServiceServer) Close(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("Close")
}
func (UnimplementedFinanceServiceServer) Cancel(context.Context, *dto.CancelRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("Cancel")
}
func (UnimplementedFinanceServiceServer) MarkDefaulted(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("MarkDefaulted")
}
func (UnimplementedFinanceServiceServer) GetOwner(context.Context, *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("GetOwner")
}
func (UnimplementedFinanceServiceServer) LateInterest(context.Context, *dto.LateInterestRequest) (*dto.LateInterestResponse, error) {
	return nil, unimplemented("LateInterest")
}
func (UnimplementedFinanceServiceServer) RunDepreciation(context.Context, *dto.RunDepreciationRequest) (*dto.DepreciationRunResponse, error) {
	return nil, unimplemented("RunDepreciation")
}
func (UnimplementedFinanceServiceServer) RetryPostings(context.Context, *dto.OwnerRequest) (*dto.RetryPostingsResponse, error) {
	return nil, unimplemented("RetryPostings")
}
func (UnimplementedFinanceServiceServer) RevalueAsset(context.Context, *dto.RevalueAssetRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("RevalueAsset")
}
func (UnimplementedFinanceServiceServer) AddToCost(context.Context, *dto.AddToCostRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("AddToCost")
}
func (UnimplementedFinanceServiceServer) DisposeAsset(context.Context, *dto.DisposeAssetRequest) (*dto.OwnerResponse, error) {
	return nil, unimplemented("DisposeAsset")
}
func (UnimplementedFinanceServiceServer) mustEmbedUnimplementedFinanceServiceServer() {}

// RegisterFinanceServiceServer registers the FinanceServiceServer with the gRPC server.
func RegisterFinanceServiceServer(s grpclib.ServiceRegistrar, srv FinanceServiceServer) {
	s.RegisterService(&financeServiceDesc, srv)
}

var financeServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FinanceServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("CreateLoan", FinanceServiceServer.CreateLoan),
		unary("CreateInstallmentPlan", FinanceServiceServer.CreateInstallmentPlan),
		unary("RegisterFixedAsset", FinanceServiceServer.RegisterFixedAsset),
		unary("PlaceAssetInService", FinanceServiceServer.PlaceAssetInService),
		unary("Activate", FinanceServiceServer.Activate),
		unary("ApplyPayment", FinanceServiceServer.ApplyPayment),
		unary("Restructure", FinanceServiceServer.Restructure),
		unary("Close", FinanceServiceServer.Close),
		unary("Cancel", FinanceServiceServer.Cancel),
		unary("MarkDefaulted", FinanceServiceServer.MarkDefaulted),
		unary("GetOwner", FinanceServiceServer.GetOwner),
		unary("LateInterest", FinanceServiceServer.LateInterest),
		unary("RunDepreciation", FinanceServiceServer.RunDepreciation),
		unary("RetryPostings", FinanceServiceServer.RetryPostings),
		unary("RevalueAsset", FinanceServiceServer.RevalueAsset),
		unary("AddToCost", FinanceServiceServer.AddToCost),
		unary("DisposeAsset", FinanceServiceServer.DisposeAsset),
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "bib/finance/v1/finance.proto",
}

// unary builds the method descriptor generated code would spell out per method.
func unary[Req, Resp any](
	method string,
	call func(FinanceServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodDesc {
	return grpclib.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FinanceServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(FinanceServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
