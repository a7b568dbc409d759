package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/pkg/auth"
)

// Command is the shape shared by every use case.
type Command[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// UseCases groups the application operations exposed over gRPC.
type UseCases struct {
	CreateLoan            Command[dto.CreateLoanRequest, dto.OwnerResponse]
	CreateInstallmentPlan Command[dto.CreateInstallmentPlanRequest, dto.OwnerResponse]
	RegisterFixedAsset    Command[dto.RegisterFixedAssetRequest, dto.OwnerResponse]
	PlaceAssetInService   Command[dto.PlaceInServiceRequest, dto.OwnerResponse]
	Activate              Command[dto.OwnerRequest, dto.OwnerResponse]
	ApplyPayment          Command[dto.ApplyPaymentRequest, dto.PaymentResponse]
	Restructure           Command[dto.RestructureRequest, dto.OwnerResponse]
	Close                 Command[dto.OwnerRequest, dto.OwnerResponse]
	Cancel                Command[dto.CancelRequest, dto.OwnerResponse]
	MarkDefaulted         Command[dto.OwnerRequest, dto.OwnerResponse]
	GetOwner              Command[dto.OwnerRequest, dto.OwnerResponse]
	LateInterest          Command[dto.LateInterestRequest, dto.LateInterestResponse]
	RunDepreciation       Command[dto.RunDepreciationRequest, dto.DepreciationRunResponse]
	RetryPostings         Command[dto.OwnerRequest, dto.RetryPostingsResponse]
	RevalueAsset          Command[dto.RevalueAssetRequest, dto.OwnerResponse]
	AddToCost             Command[dto.AddToCostRequest, dto.OwnerResponse]
	DisposeAsset          Command[dto.DisposeAssetRequest, dto.OwnerResponse]
}

// NewUseCases builds every use case over the same dependencies.
func NewUseCases(deps usecase.Dependencies, depreciation *usecase.RunDepreciationUseCase) UseCases {
	return UseCases{
		CreateLoan:            usecase.NewCreateLoanUseCase(deps),
		CreateInstallmentPlan: usecase.NewCreateInstallmentPlanUseCase(deps),
		RegisterFixedAsset:    usecase.NewRegisterFixedAssetUseCase(deps),
		PlaceAssetInService:   usecase.NewPlaceAssetInServiceUseCase(deps),
		Activate:              usecase.NewActivateUseCase(deps),
		ApplyPayment:          usecase.NewApplyPaymentUseCase(deps),
		Restructure:           usecase.NewRestructureUseCase(deps),
		Close:                 usecase.NewCloseUseCase(deps),
		Cancel:                usecase.NewCancelUseCase(deps),
		MarkDefaulted:         usecase.NewMarkDefaultedUseCase(deps),
		GetOwner:              usecase.NewGetOwnerUseCase(deps),
		LateInterest:          usecase.NewLateInterestUseCase(deps),
		RunDepreciation:       depreciation,
		RetryPostings:         usecase.NewRetryPostingsUseCase(deps),
		RevalueAsset:          usecase.NewRevalueAssetUseCase(deps),
		AddToCost:             usecase.NewAddToCostUseCase(deps),
		DisposeAsset:          usecase.NewDisposeAssetUseCase(deps),
	}
}

// FinanceHandler implements FinanceServiceServer on top of the use cases.
type FinanceHandler struct {
	UnimplementedFinanceServiceServer
	uc     UseCases
	logger *slog.Logger
}

// NewFinanceHandler creates the gRPC handler.
func NewFinanceHandler(uc UseCases, logger *slog.Logger) *FinanceHandler {
	return &FinanceHandler{uc: uc, logger: logger}
}

var _ FinanceServiceServer = (*FinanceHandler)(nil)

func (h *FinanceHandler) CreateLoan(ctx context.Context, req *dto.CreateLoanRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "CreateLoan", req.TenantID, *req, h.uc.CreateLoan)
}

func (h *FinanceHandler) CreateInstallmentPlan(ctx context.Context, req *dto.CreateInstallmentPlanRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "CreateInstallmentPlan", req.TenantID, *req, h.uc.CreateInstallmentPlan)
}

func (h *FinanceHandler) RegisterFixedAsset(ctx context.Context, req *dto.RegisterFixedAssetRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "RegisterFixedAsset", req.TenantID, *req, h.uc.RegisterFixedAsset)
}

func (h *FinanceHandler) PlaceAssetInService(ctx context.Context, req *dto.PlaceInServiceRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "PlaceAssetInService", req.TenantID, *req, h.uc.PlaceAssetInService)
}

func (h *FinanceHandler) Activate(ctx context.Context, req *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "Activate", req.TenantID, *req, h.uc.Activate)
}

// ApplyPayment books a payment. A payment whose journal entries could not
// be sent still succeeds: the response lists them as pending.
func (h *FinanceHandler) ApplyPayment(ctx context.Context, req *dto.ApplyPaymentRequest) (*dto.PaymentResponse, error) {
	return handle(ctx, h, "ApplyPayment", req.TenantID, *req, h.uc.ApplyPayment)
}

func (h *FinanceHandler) Restructure(ctx context.Context, req *dto.RestructureRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "Restructure", req.TenantID, *req, h.uc.Restructure)
}

func (h *FinanceHandler) Close(ctx context.Context, req *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "Close", req.TenantID, *req, h.uc.Close)
}

func (h *FinanceHandler) Cancel(ctx context.Context, req *dto.CancelRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "Cancel", req.TenantID, *req, h.uc.Cancel)
}

func (h *FinanceHandler) MarkDefaulted(ctx context.Context, req *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "MarkDefaulted", req.TenantID, *req, h.uc.MarkDefaulted)
}

func (h *FinanceHandler) GetOwner(ctx context.Context, req *dto.OwnerRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "GetOwner", req.TenantID, *req, h.uc.GetOwner)
}

func (h *FinanceHandler) LateInterest(ctx context.Context, req *dto.LateInterestRequest) (*dto.LateInterestResponse, error) {
	return handle(ctx, h, "LateInterest", req.TenantID, *req, h.uc.LateInterest)
}

func (h *FinanceHandler) RunDepreciation(ctx context.Context, req *dto.RunDepreciationRequest) (*dto.DepreciationRunResponse, error) {
	return handle(ctx, h, "RunDepreciation", req.TenantID, *req, h.uc.RunDepreciation)
}

func (h *FinanceHandler) RetryPostings(ctx context.Context, req *dto.OwnerRequest) (*dto.RetryPostingsResponse, error) {
	return handle(ctx, h, "RetryPostings", req.TenantID, *req, h.uc.RetryPostings)
}

func (h *FinanceHandler) RevalueAsset(ctx context.Context, req *dto.RevalueAssetRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "RevalueAsset", req.TenantID, *req, h.uc.RevalueAsset)
}

func (h *FinanceHandler) AddToCost(ctx context.Context, req *dto.AddToCostRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "AddToCost", req.TenantID, *req, h.uc.AddToCost)
}

func (h *FinanceHandler) DisposeAsset(ctx context.Context, req *dto.DisposeAssetRequest) (*dto.OwnerResponse, error) {
	return handle(ctx, h, "DisposeAsset", req.TenantID, *req, h.uc.DisposeAsset)
}

func handle[Req, Resp any](
	ctx context.Context,
	h *FinanceHandler,
	method, tenantID string,
	req Req,
	cmd Command[Req, Resp],
) (*Resp, error) {
	if cmd == nil {
		return nil, unimplemented(method)
	}
	if tenantID == "" {
		return nil, status.Error(codes.InvalidArgument, "tenant_id is required")
	}
	if err := auth.AuthorizeTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	resp, err := cmd.Execute(ctx, req)
	if err == nil {
		return &resp, nil
	}
	if errors.Is(err, usecase.ErrPostingPending) {
		h.logger.WarnContext(ctx, "journal postings left pending",
			"method", method, "tenant_id", tenantID, "error", err)
		return &resp, nil
	}

	st := toStatus(err)
	if st.Code() == codes.Internal {
		h.logger.ErrorContext(ctx, "request failed", "method", method, "tenant_id", tenantID, "error", err)
	}
	return nil, st.Err()
}

// toStatus maps domain and port errors to gRPC status codes.
func toStatus(err error) *status.Status {
	if st, ok := status.FromError(err); ok {
		return st
	}

	code := codes.Internal
	switch {
	case errors.Is(err, model.ErrInvalidArgument), errors.Is(err, model.ErrCurrencyMismatch):
		code = codes.InvalidArgument
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrAlreadySettled),
		errors.Is(err, model.ErrPeriodClosed):
		code = codes.FailedPrecondition
	case errors.Is(err, port.ErrAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, port.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, port.ErrConcurrentModification):
		code = codes.Aborted
	case errors.Is(err, usecase.ErrNoJournal):
		code = codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	if code == codes.Internal {
		return status.New(code, "internal error")
	}
	return status.New(code, err.Error())
}
