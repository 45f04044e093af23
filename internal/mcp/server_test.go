package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type pingInput struct {
	Name string `json:"name" jsonschema:"who to greet"`
}

func TestServerRunServesToolsUntilCancelled(t *testing.T) {
	server := NewServer(ServerName, ServerVersion, discardLogger)
	mcpsdk.AddTool(server.SDK(), &mcpsdk.Tool{Name: "ping", Description: "Health check"},
		func(ctx context.Context, req *mcpsdk.CallToolRequest, in pingInput) (*mcpsdk.CallToolResult, any, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "pong " + in.Name}}}, nil, nil
		})

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- server.Run(ctx, serverTransport) }()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	initResult := session.InitializeResult()
	require.NotNil(t, initResult)
	assert.Equal(t, ServerName, initResult.ServerInfo.Name)
	assert.Equal(t, ServerVersion, initResult.ServerInfo.Version)

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: "ping", Arguments: map[string]any{"name": "host"}})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Equal(t, "pong host", text.Text)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	_ = session.Close()
}

type failingTransport struct{}

func (failingTransport) Connect(context.Context) (mcpsdk.Connection, error) {
	return nil, errors.New("connect failed")
}

func TestServerRunConnectFailure(t *testing.T) {
	server := NewServer(ServerName, ServerVersion, discardLogger)

	err := server.Run(context.Background(), failingTransport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect failed")
}
