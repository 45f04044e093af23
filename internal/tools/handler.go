package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"gemini-mcp-server/internal/config"
	"gemini-mcp-server/internal/imagegen"
	"gemini-mcp-server/internal/utils"
)

// ToolName is the name the image generation tool is registered under.
const ToolName = "generate_image"

// maxInlineImageSize is the largest encoded image still inlined in a result.
// Hosts reject inline payloads of 1 MiB or more; 1 KiB is kept as margin.
const maxInlineImageSize = 1024*1024 - 1024

const toolDescription = "Generates an image from a text prompt. Images are written to the server's " +
	"output directory and images under 1 MB are also returned inline."

// GenerateImageInput is the argument object of the generate_image tool.
type GenerateImageInput struct {
	Prompt string `json:"prompt" jsonschema:"Detailed text description of the image to generate"`
}

// SavedFile describes one image written to disk. Size is derived from the
// encoded payload length, not the decoded byte count.
type SavedFile struct {
	Path string
	Size string
}

// InlineImage is an image returned in the tool result itself.
type InlineImage struct {
	Data     []byte
	MIMEType string
}

// GenerationResult is what a successful generation produced.
type GenerationResult struct {
	Files  []SavedFile
	Images []InlineImage
}

// Handler implements the generate_image tool.
type Handler struct {
	generator    imagegen.Generator
	outputPath   string
	timeoutSec   int
	errorLogPath string
	logger       *slog.Logger
	now          func() time.Time
}

// NewHandler creates a new tool handler.
func NewHandler(generator imagegen.Generator, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		generator:    generator,
		outputPath:   cfg.OutputDir,
		timeoutSec:   cfg.TimeoutSec,
		errorLogPath: cfg.ErrorLogPath,
		logger:       logger,
		now:          time.Now,
	}
}

// inputSchema is the schema inferred from GenerateImageInput with the prompt
// additionally required to be non-empty.
func inputSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[GenerateImageInput](nil)
	if err != nil {
		return nil, fmt.Errorf("infer %s input schema: %w", ToolName, err)
	}
	prompt, ok := schema.Properties["prompt"]
	if !ok {
		return nil, fmt.Errorf("%s input schema has no prompt property", ToolName)
	}
	minLength := 1
	prompt.MinLength = &minLength
	return schema, nil
}

// Register adds the generate_image tool to server. Arguments are validated
// against the input schema by the SDK before the handler is invoked.
func (h *Handler) Register(server *mcpsdk.Server) error {
	schema, err := inputSchema()
	if err != nil {
		return err
	}
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: schema,
	}, h.handleGenerateImage)
	h.logger.Debug("Registered tool", "tool_name", ToolName, "backend", h.generator.Name())
	return nil
}

// handleGenerateImage is the single point where failures become an
// error-flagged tool result.
func (h *Handler) handleGenerateImage(ctx context.Context, _ *mcpsdk.CallToolRequest, in GenerateImageInput) (*mcpsdk.CallToolResult, any, error) {
	h.logger.Info("Handling tools/call request", "tool_name", ToolName, "backend", h.generator.Name())

	result, err := h.Generate(ctx, in.Prompt)
	if err != nil {
		h.logger.Error("Error generating image", "error", err)
		if h.errorLogPath != "" {
			utils.LogErrorToFile(h.errorLogPath, err, map[string]string{
				"tool":    ToolName,
				"backend": h.generator.Name(),
				"prompt":  in.Prompt,
			})
		}
		return errorResult(err), nil, nil
	}
	return toolResult(result), nil, nil
}

// Generate calls the upstream generator and writes every returned image to
// the output directory. Files written before a failure are left in place.
func (h *Handler) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	resp, err := h.callGenerator(ctx, prompt)
	if err != nil {
		return nil, err
	}

	stem := utils.FilenameStem(prompt)
	result := &GenerationResult{}

	for idx, part := range resp.Parts {
		i := idx + 1 // part indexes in file names are 1-based
		switch {
		case part.Text != "":
			h.logger.Info("Model commentary", "part", i, "text", part.Text)
		case part.InlineData != nil:
			saved, inline, err := h.saveImage(part.InlineData, stem, i)
			if err != nil {
				return nil, err
			}
			result.Files = append(result.Files, saved)
			if inline != nil {
				result.Images = append(result.Images, *inline)
			}
		}
	}

	h.logger.Info("Image generation finished", "files", len(result.Files), "inline_images", len(result.Images))
	return result, nil
}

func (h *Handler) callGenerator(ctx context.Context, prompt string) (*imagegen.Response, error) {
	if h.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.timeoutSec)*time.Second)
		defer cancel()
	}
	h.logger.Debug("Calling image generator", "backend", h.generator.Name(), "timeout_sec", h.timeoutSec)
	return h.generator.Generate(ctx, prompt)
}

// saveImage decodes and writes one image part. The returned InlineImage is nil
// when the image has no MIME type or is too large to inline.
func (h *Handler) saveImage(blob *imagegen.Blob, stem string, index int) (SavedFile, *InlineImage, error) {
	raw, err := utils.DecodeImageData(blob.Data)
	if err != nil {
		return SavedFile{}, nil, err
	}

	if err := utils.EnsureDir(h.outputPath); err != nil {
		return SavedFile{}, nil, err
	}

	path := utils.ImagePath(h.outputPath, h.generator.Name(), stem, h.now(), index)
	if err := utils.WriteFile(path, raw); err != nil {
		return SavedFile{}, nil, err
	}

	encodedLen := len(blob.Data)
	saved := SavedFile{Path: path, Size: utils.FormatKB(encodedLen)}
	h.logger.Info("Saved image", "path", path, "size", saved.Size, "mime_type", blob.MIMEType)

	if blob.MIMEType == "" || encodedLen >= maxInlineImageSize {
		h.logger.Debug("Image not inlined", "path", path, "encoded_size", encodedLen, "threshold", maxInlineImageSize)
		return saved, nil, nil
	}
	return saved, &InlineImage{Data: raw, MIMEType: blob.MIMEType}, nil
}

// toolResult renders a status line followed by one image item per inline image.
func toolResult(result *GenerationResult) *mcpsdk.CallToolResult {
	described := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		described = append(described, fmt.Sprintf("%s (%s)", f.Path, f.Size))
	}

	content := make([]mcpsdk.Content, 0, 1+len(result.Images))
	content = append(content, &mcpsdk.TextContent{Text: "Wrote files to " + strings.Join(described, ", ")})
	for _, img := range result.Images {
		content = append(content, &mcpsdk.ImageContent{Data: img.Data, MIMEType: img.MIMEType})
	}
	return &mcpsdk.CallToolResult{Content: content}
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "Error generating image: " + err.Error()}},
		IsError: true,
	}
}
