package clarifai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	pb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api"
	statuspb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// ErrPatMissing indicates no Personal Access Token was configured.
var ErrPatMissing = errors.New("clarifai personal access token is not configured (-pat or CLARIFAI_PAT)")

// APIStatusError represents an error derived from a non-SUCCESS Clarifai API status code.
type APIStatusError struct {
	StatusCode codes.Code
	Message    string
	Details    string
	ReqId      string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("API error (%s): %s - %s (ReqId: %s)", e.StatusCode.String(), e.Message, e.Details, e.ReqId)
}

// NewAPIStatusError creates a new APIStatusError from a statuspb.Status.
// Every non-SUCCESS Clarifai status maps to codes.Internal.
func NewAPIStatusError(st *statuspb.Status) *APIStatusError {
	grpcCode := codes.Internal
	if st.GetCode() == statuspb.StatusCode_SUCCESS {
		grpcCode = codes.OK
		slog.Warn("Creating APIStatusError from SUCCESS statuspb.Status", "code", st.GetCode(), "description", st.GetDescription())
	}

	return &APIStatusError{
		StatusCode: grpcCode,
		Message:    st.GetDescription(),
		Details:    st.GetDetails(),
		ReqId:      st.GetReqId(),
	}
}

// V2ClientInterface defines the subset of pb.V2Client methods used by this server.
// This makes mocking easier for testing.
type V2ClientInterface interface {
	PostModelOutputs(ctx context.Context, in *pb.PostModelOutputsRequest, opts ...grpc.CallOption) (*pb.MultiOutputResponse, error)
}

// Client wraps the gRPC connection and the client interface.
type Client struct {
	Conn *grpc.ClientConn
	API  V2ClientInterface
}

// NewClient prepares a TLS gRPC connection to the Clarifai API. The connection
// is established lazily on the first call.
func NewClient(apiAddress string) (*Client, error) {
	slog.Debug("Creating gRPC client", "address", apiAddress)
	creds := grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))

	conn, err := grpc.NewClient(apiAddress, creds)
	if err != nil {
		return nil, fmt.Errorf("create clarifai grpc client for %s: %w", apiAddress, err)
	}

	return &Client{
		Conn: conn,
		API:  pb.NewV2Client(conn),
	}, nil
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if c.Conn != nil {
		slog.Debug("Closing gRPC connection...")
		return c.Conn.Close()
	}
	return nil
}

// CreateContextWithAuth adds the PAT authorization header to the context.
func CreateContextWithAuth(ctx context.Context, pat string) context.Context {
	return metadata.NewOutgoingContext(ctx, metadata.Pairs("Authorization", "Key "+pat))
}
