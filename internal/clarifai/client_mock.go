package clarifai

import (
	"context"

	pb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// MockV2Client is a mock implementation of the limited V2ClientInterface for testing.
type MockV2Client struct {
	PostModelOutputsFunc func(ctx context.Context, in *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error)
}

// Ensure MockV2Client implements the V2ClientInterface.
var _ V2ClientInterface = (*MockV2Client)(nil)

// PostModelOutputs calls the mock function or returns default values.
func (m *MockV2Client) PostModelOutputs(ctx context.Context, in *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
	if m.PostModelOutputsFunc != nil {
		return m.PostModelOutputsFunc(ctx, in, opts...)
	}
	return &pb.MultiOutputResponse{}, nil
}

// AuthFromContext returns the Authorization metadata attached by CreateContextWithAuth.
func AuthFromContext(ctx context.Context) string {
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get("Authorization"); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
