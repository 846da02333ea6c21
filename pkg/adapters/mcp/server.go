package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/greeter/internal/logging"
	"github.com/aretw0/greeter/pkg/features/greetings"
	"github.com/aretw0/greeter/pkg/registry"
	"github.com/aretw0/greeter/pkg/usecase"
)

// GreetingsURI is the resource listing every greeting.
const GreetingsURI = "greeter://greetings"

// GreetingList wraps list results so structured tool output is always an object.
type GreetingList struct {
	Greetings []usecase.GreetingResponse `json:"greetings" jsonschema_description:"Greetings, oldest first"`
}

type nameArgs struct {
	Name string `json:"name"`
}

type idArgs struct {
	ID string `json:"id"`
}

// Server exposes the greeting use cases as MCP tools.
type Server struct {
	container *registry.Container
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. Every tool call runs in its own registry scope.
func NewServer(container *registry.Container, version string, opts ...Option) *Server {
	s := &Server{
		container: container,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("greeter-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, mainly for tests and embedding.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// withUseCases runs fn against use cases from a fresh scope.
func (s *Server) withUseCases(ctx context.Context, fn func(usecase.GreetingUseCases) error) error {
	scope := s.container.NewScope()
	defer func() {
		if err := scope.Close(); err != nil {
			s.logger.Warn("Failed to close tool scope", "err", err)
		}
	}()

	uc, err := registry.Resolve[usecase.GreetingUseCases](ctx, scope, greetings.UseCasesKey)
	if err != nil {
		return err
	}
	return fn(uc)
}

func (s *Server) registerTools() {
	// TOOL: create_greeting
	createTool := mcp.NewTool("create_greeting",
		mcp.WithDescription("Create and store a greeting for a person."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Person name, at most 100 characters")),
		mcp.WithOutputSchema[usecase.GreetingResponse](),
	)
	s.mcpServer.AddTool(createTool, mcp.NewStructuredToolHandler(s.handleCreate))

	// TOOL: get_greeting
	getTool := mcp.NewTool("get_greeting",
		mcp.WithDescription("Get a greeting by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Greeting UUID")),
		mcp.WithOutputSchema[usecase.GreetingResponse](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGet))

	// TOOL: list_greetings
	listTool := mcp.NewTool("list_greetings",
		mcp.WithDescription("List every greeting, oldest first."),
		mcp.WithOutputSchema[GreetingList](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleList))

	// TOOL: find_greetings_by_name
	findTool := mcp.NewTool("find_greetings_by_name",
		mcp.WithDescription("Find greetings for a person name, ignoring case."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Person name")),
		mcp.WithOutputSchema[GreetingList](),
	)
	s.mcpServer.AddTool(findTool, mcp.NewStructuredToolHandler(s.handleFind))
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args nameArgs) (usecase.GreetingResponse, error) {
	var resp usecase.GreetingResponse
	err := s.withUseCases(ctx, func(uc usecase.GreetingUseCases) error {
		var err error
		resp, err = uc.CreateGreeting(ctx, usecase.CreateGreetingRequest{Name: args.Name})
		return err
	})
	if err != nil {
		s.logger.Warn("MCP create_greeting failed", "err", err)
		return usecase.GreetingResponse{}, err
	}
	return resp, nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args idArgs) (usecase.GreetingResponse, error) {
	id, err := uuid.Parse(args.ID)
	if err != nil {
		return usecase.GreetingResponse{}, fmt.Errorf("id must be a valid UUID: %w", err)
	}

	var resp usecase.GreetingResponse
	err = s.withUseCases(ctx, func(uc usecase.GreetingUseCases) error {
		var err error
		resp, err = uc.GetGreeting(ctx, id)
		return err
	})
	return resp, err
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (GreetingList, error) {
	var list []usecase.GreetingResponse
	err := s.withUseCases(ctx, func(uc usecase.GreetingUseCases) error {
		var err error
		list, err = uc.ListGreetings(ctx)
		return err
	})
	if err != nil {
		return GreetingList{}, err
	}
	return GreetingList{Greetings: list}, nil
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest, args nameArgs) (GreetingList, error) {
	var list []usecase.GreetingResponse
	err := s.withUseCases(ctx, func(uc usecase.GreetingUseCases) error {
		var err error
		list, err = uc.FindGreetingsByName(ctx, args.Name)
		return err
	})
	if err != nil {
		return GreetingList{}, err
	}
	return GreetingList{Greetings: list}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: greeter://greetings
	s.mcpServer.AddResource(mcp.NewResource(GreetingsURI, "All Greetings",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.handleList(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list greetings: %w", err)
		}
		jsonBytes, err := json.Marshal(list.Greetings)
		if err != nil {
			return nil, fmt.Errorf("failed to encode greetings: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GreetingsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
