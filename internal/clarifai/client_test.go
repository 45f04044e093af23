package clarifai

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	pb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api"
	statuspb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A" + "rest-of-image")

func setupTestGenerator(pat string) (*Generator, *MockV2Client) {
	mockClient := &MockV2Client{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerator(&Client{API: mockClient}, pat, logger), mockClient
}

func TestGenerate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gen, mockClient := setupTestGenerator("test-pat")
		mockClient.PostModelOutputsFunc = func(ctx context.Context, req *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
			assert.Equal(t, "Key test-pat", AuthFromContext(ctx))
			assert.Equal(t, DefaultModelID, req.ModelId)
			assert.Equal(t, DefaultUserID, req.GetUserAppId().GetUserId())
			assert.Equal(t, DefaultAppID, req.GetUserAppId().GetAppId())
			require.Len(t, req.Inputs, 1)
			assert.Equal(t, "a cat wearing a hat", req.Inputs[0].GetData().GetText().GetRaw())
			return &pb.MultiOutputResponse{
				Status: &statuspb.Status{Code: statuspb.StatusCode_SUCCESS},
				Outputs: []*pb.Output{
					{Data: &pb.Data{Image: &pb.Image{Base64: pngHeader}}},
				},
			}, nil
		}

		resp, err := gen.Generate(context.Background(), "a cat wearing a hat")
		require.NoError(t, err)
		require.Len(t, resp.Parts, 1)
		require.NotNil(t, resp.Parts[0].InlineData)
		assert.Equal(t, "image/png", resp.Parts[0].InlineData.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(pngHeader), resp.Parts[0].InlineData.Data)
	})

	t.Run("Unrecognised bytes have no MIME type", func(t *testing.T) {
		gen, mockClient := setupTestGenerator("test-pat")
		mockClient.PostModelOutputsFunc = func(ctx context.Context, req *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
			return &pb.MultiOutputResponse{
				Status:  &statuspb.Status{Code: statuspb.StatusCode_SUCCESS},
				Outputs: []*pb.Output{{Data: &pb.Data{Image: &pb.Image{Base64: []byte("plain text")}}}},
			}, nil
		}

		resp, err := gen.Generate(context.Background(), "anything")
		require.NoError(t, err)
		require.Len(t, resp.Parts, 1)
		assert.Empty(t, resp.Parts[0].InlineData.MIMEType)
	})

	t.Run("No image outputs", func(t *testing.T) {
		gen, mockClient := setupTestGenerator("test-pat")
		mockClient.PostModelOutputsFunc = func(ctx context.Context, req *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
			return &pb.MultiOutputResponse{
				Status:  &statuspb.Status{Code: statuspb.StatusCode_SUCCESS},
				Outputs: []*pb.Output{{Data: &pb.Data{}}},
			}, nil
		}

		resp, err := gen.Generate(context.Background(), "anything")
		require.NoError(t, err)
		assert.Empty(t, resp.Parts)
	})

	t.Run("API_Error", func(t *testing.T) {
		gen, mockClient := setupTestGenerator("test-pat")
		apiError := status.Error(codes.Unauthenticated, "invalid PAT")
		mockClient.PostModelOutputsFunc = func(ctx context.Context, req *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
			return nil, apiError
		}

		_, err := gen.Generate(context.Background(), "anything")
		require.Error(t, err)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Non-success status", func(t *testing.T) {
		gen, mockClient := setupTestGenerator("test-pat")
		mockClient.PostModelOutputsFunc = func(ctx context.Context, req *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
			return &pb.MultiOutputResponse{
				Status: &statuspb.Status{
					Code:        statuspb.StatusCode(21200), // MODEL_DOES_NOT_EXIST
					Description: "Model does not exist",
					Details:     "stable-diffusion-xl",
					ReqId:       "req-123",
				},
			}, nil
		}

		_, err := gen.Generate(context.Background(), "anything")
		var apiErr *APIStatusError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, codes.Internal, apiErr.StatusCode)
		assert.Equal(t, "Model does not exist", apiErr.Message)
		assert.Equal(t, "req-123", apiErr.ReqId)
		assert.Contains(t, err.Error(), "ReqId: req-123")
	})

	t.Run("Missing PAT", func(t *testing.T) {
		gen, mockClient := setupTestGenerator("")
		mockClient.PostModelOutputsFunc = func(ctx context.Context, req *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error) {
			panic("PostModelOutputs should not have been called")
		}

		_, err := gen.Generate(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrPatMissing)
	})
}

func TestNewClientAndClose(t *testing.T) {
	client, err := NewClient("localhost:0")
	require.NoError(t, err)
	assert.NotNil(t, client.API)
	assert.NoError(t, client.Close())

	assert.NoError(t, (&Client{}).Close())
}

func TestName(t *testing.T) {
	gen, _ := setupTestGenerator("p")
	assert.Equal(t, "clarifai", gen.Name())
}
