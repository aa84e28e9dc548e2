// Package mcp exposes a workflow definition as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/internal/presentation/graph"
	"github.com/aretw0/stepflow/internal/presentation/tui"
	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefinitionURI is the resource under which the served definition is published.
const DefinitionURI = "stepflow://definition"

// ExecuteArgs are the arguments of the execute_workflow tool. Input takes
// precedence over Bucket and Key.
type ExecuteArgs struct {
	Input           map[string]any `json:"input,omitempty"`
	Bucket          string         `json:"bucket,omitempty"`
	Key             string         `json:"key,omitempty"`
	DeadlineSeconds float64        `json:"deadline_seconds,omitempty"`
}

// GetExecutionArgs are the arguments of the get_execution tool.
type GetExecutionArgs struct {
	ID string `json:"id"`
}

// DescribeArgs are the arguments of the describe_workflow tool.
type DescribeArgs struct {
	Execution string `json:"execution,omitempty"`
}

// Description is the result of describe_workflow.
type Description struct {
	Markdown string `json:"markdown" jsonschema_description:"States of the workflow as a markdown table"`
	Mermaid  string `json:"mermaid" jsonschema_description:"Mermaid flowchart of the workflow"`
}

// Server wraps an Executor and exposes it as an MCP Server.
type Server struct {
	executor  ports.Executor
	def       *domain.Definition
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance serving def.
func NewServer(executor ports.Executor, def *domain.Definition, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		executor:  executor,
		def:       def,
		logger:    logger,
		mcpServer: server.NewMCPServer("stepflow-mcp", strings.TrimSpace(stepflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	executeTool := mcp.NewTool("execute_workflow",
		mcp.WithDescription(fmt.Sprintf("Run the %s workflow to completion and return its result.", s.def.Name)),
		mcp.WithObject("input", mcp.Description("Initial context. When omitted, bucket and key are used.")),
		mcp.WithString("bucket", mcp.Description("Bucket of the object to analyze")),
		mcp.WithString("key", mcp.Description("Key of the object to analyze")),
		mcp.WithNumber("deadline_seconds", mcp.Description("Run deadline; defaults to the workflow timeout")),
		mcp.WithOutputSchema[domain.ExecutionResult](),
	)
	s.mcpServer.AddTool(executeTool, mcp.NewStructuredToolHandler(s.handleExecute))

	getTool := mcp.NewTool("get_execution",
		mcp.WithDescription("Fetch a previously finished execution by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Execution ID")),
		mcp.WithOutputSchema[domain.ExecutionResult](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetExecution))

	describeTool := mcp.NewTool("describe_workflow",
		mcp.WithDescription("Describe the workflow states and render its graph."),
		mcp.WithString("execution", mcp.Description("Execution ID whose path should be highlighted (optional)")),
		mcp.WithOutputSchema[Description](),
	)
	s.mcpServer.AddTool(describeTool, mcp.NewStructuredToolHandler(s.handleDescribe))
}

func (s *Server) handleExecute(ctx context.Context, _ mcp.CallToolRequest, args ExecuteArgs) (domain.ExecutionResult, error) {
	if args.DeadlineSeconds < 0 {
		return domain.ExecutionResult{}, fmt.Errorf("%w: deadline_seconds must not be negative", domain.ErrInvalidInput)
	}
	input := args.Input
	if input == nil {
		input = map[string]any{}
		if args.Bucket != "" {
			input[capability.ParamBucket] = args.Bucket
		}
		if args.Key != "" {
			input[capability.ParamKey] = args.Key
		}
	}

	deadline := time.Duration(args.DeadlineSeconds * float64(time.Second))
	result := s.executor.Execute(ctx, s.def, input, deadline)
	s.logger.Info("MCP execution finished", "execution_id", result.ID, "status", result.Status)
	return result, nil
}

func (s *Server) handleGetExecution(ctx context.Context, _ mcp.CallToolRequest, args GetExecutionArgs) (domain.ExecutionResult, error) {
	if args.ID == "" {
		return domain.ExecutionResult{}, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	result, err := s.executor.Result(ctx, args.ID)
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("get execution %s: %w", args.ID, err)
	}
	return result, nil
}

func (s *Server) handleDescribe(ctx context.Context, _ mcp.CallToolRequest, args DescribeArgs) (Description, error) {
	var overlay *graph.GraphOverlay
	if args.Execution != "" {
		result, err := s.executor.Result(ctx, args.Execution)
		if err != nil {
			return Description{}, fmt.Errorf("get execution %s: %w", args.Execution, err)
		}
		overlay = graph.OverlayFor(result)
	}
	return Description{
		Markdown: tui.DescribeMarkdown(s.def),
		Mermaid:  graph.GenerateMermaid(s.def, overlay),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DefinitionURI, "Workflow Definition",
		mcp.WithMIMEType("application/json"),
	), s.readDefinition)
}

func (s *Server) readDefinition(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode definition: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DefinitionURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
