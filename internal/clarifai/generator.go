package clarifai

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	pb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api"
	statuspb "github.com/Clarifai/clarifai-go-grpc/proto/clarifai/api/status"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"gemini-mcp-server/internal/imagegen"
)

// Default text-to-image model and its owning user/app.
const (
	DefaultModelID = "stable-diffusion-xl"
	DefaultUserID  = "stability-ai"
	DefaultAppID   = "stable-diffusion-2"
)

// Generator runs a Clarifai text-to-image model through PostModelOutputs.
type Generator struct {
	client  *Client
	pat     string
	modelID string
	userID  string
	appID   string
	logger  *slog.Logger
}

// NewGenerator returns a Generator using the default Stable Diffusion XL model.
func NewGenerator(client *Client, pat string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:  client,
		pat:     pat,
		modelID: DefaultModelID,
		userID:  DefaultUserID,
		appID:   DefaultAppID,
		logger:  logger,
	}
}

// Name implements imagegen.Generator.
func (g *Generator) Name() string { return "clarifai" }

// Generate implements imagegen.Generator. A successful call yields a single
// inline image part; the MIME type is sniffed from the image bytes.
func (g *Generator) Generate(ctx context.Context, prompt string) (*imagegen.Response, error) {
	if g.pat == "" {
		return nil, ErrPatMissing
	}

	grpcRequest := &pb.PostModelOutputsRequest{
		UserAppId: &pb.UserAppIDSet{UserId: g.userID, AppId: g.appID},
		ModelId:   g.modelID,
		Inputs: []*pb.Input{
			{Data: &pb.Data{Text: &pb.Text{Raw: prompt}}},
		},
	}

	g.logger.Info("Calling PostModelOutputs for generate_image", "user_id", g.userID, "app_id", g.appID, "model_id", g.modelID)
	resp, err := g.client.API.PostModelOutputs(CreateContextWithAuth(ctx, g.pat), grpcRequest)
	if err != nil {
		g.logger.Error("gRPC PostModelOutputs error", "grpc_code", status.Code(err), "error", err)
		return nil, err
	}
	if resp.GetStatus().GetCode() != statuspb.StatusCode_SUCCESS {
		g.logger.Debug("gRPC PostModelOutputs non-success status", "status", protojson.Format(resp.GetStatus()))
		return nil, NewAPIStatusError(resp.GetStatus())
	}

	out := &imagegen.Response{}
	for _, output := range resp.GetOutputs() {
		img := output.GetData().GetImage()
		if img == nil || len(img.GetBase64()) == 0 {
			continue
		}
		data := img.GetBase64()
		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			mimeType = ""
		}
		out.Parts = append(out.Parts, imagegen.Part{
			InlineData: &imagegen.Blob{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			},
		})
	}
	g.logger.Debug("PostModelOutputs returned images", "count", len(out.Parts))
	return out, nil
}
