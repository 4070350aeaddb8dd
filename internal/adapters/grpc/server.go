package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stylingadventures/moderation-service/internal/application"
	"github.com/stylingadventures/moderation-service/internal/domain"
)

// ModerationInternalService is the service-to-service surface other platform
// modules call instead of the public HTTP API.
type ModerationInternalService interface {
	GetSubmissionStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type ModerationInternalServer struct {
	service *application.Service
}

func NewModerationInternalServer(service *application.Service) *ModerationInternalServer {
	return &ModerationInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc ModerationInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "stylingadventures.moderation.v1.ModerationInternalService",
		HandlerType: (*ModerationInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetSubmissionStatus",
				Handler:    getSubmissionStatusHandler(svc),
			},
			{
				MethodName: "AnalyzeContent",
				Handler:    analyzeContentHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/moderation/v1/moderation_internal.proto",
	}, svc)
}

func (s *ModerationInternalServer) GetSubmissionStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	itemID := req.GetFields()["item_id"].GetStringValue()
	if itemID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing item_id")
	}

	res, err := s.service.GetSubmission(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "submission not found")
		}
		return nil, status.Errorf(codes.Internal, "get submission: %v", err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"item_id":      res.ItemID,
		"status":       res.Status,
		"reason":       res.Reason,
		"submitted_at": res.SubmittedAt.Unix(),
		"updated_at":   res.UpdatedAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *ModerationInternalServer) AnalyzeContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	analyzeReq := application.AnalyzeRequest{
		ItemID:      fields["item_id"].GetStringValue(),
		OwnerID:     fields["owner_id"].GetStringValue(),
		Text:        fields["text"].GetStringValue(),
		Description: fields["description"].GetStringValue(),
		MediaKey:    fields["media_key"].GetStringValue(),
	}
	for _, v := range fields["tags"].GetListValue().GetValues() {
		if tag := v.GetStringValue(); tag != "" {
			analyzeReq.Tags = append(analyzeReq.Tags, tag)
		}
	}
	if analyzeReq.ItemID == "" || analyzeReq.OwnerID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing item_id or owner_id")
	}

	decision, err := s.service.AnalyzeAndDecide(ctx, analyzeReq)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, status.Errorf(codes.InvalidArgument, "analyze content: %v", err)
		}
		return nil, status.Errorf(codes.Internal, "analyze content: %v", err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"item_id":    decision.ItemID,
		"status":     string(decision.Status),
		"reason":     decision.Reason,
		"confidence": decision.Confidence,
		"shadow":     decision.ShadowModeration,
		"decided_at": decision.DecidedAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func getSubmissionStatusHandler(svc ModerationInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.GetSubmissionStatus(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/stylingadventures.moderation.v1.ModerationInternalService/GetSubmissionStatus",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.GetSubmissionStatus(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func analyzeContentHandler(svc ModerationInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.AnalyzeContent(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/stylingadventures.moderation.v1.ModerationInternalService/AnalyzeContent",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.AnalyzeContent(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
