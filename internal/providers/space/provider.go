package space

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/GriffinCanCode/notebook/internal/service"
	"github.com/GriffinCanCode/notebook/internal/shared/paths"
	"github.com/GriffinCanCode/notebook/internal/space"
)

// Provider exposes the space to editors
type Provider struct {
	store *space.Store
}

// NewProvider creates a space provider
func NewProvider(store *space.Store) *Provider {
	return &Provider{store: store}
}

// File is a file read through a syscall. Data is base64 encoded.
type File struct {
	Data string         `json:"data"`
	Meta space.FileInfo `json:"meta"`
}

// Definition returns service metadata
func (p *Provider) Definition() service.Service {
	name := service.Parameter{Name: "name", Type: "string", Description: "Space path", Required: true}
	page := service.Parameter{Name: "page", Type: "string", Description: "Page name", Required: true}

	return service.Service{
		ID:          "space",
		Name:        "Space",
		Description: "Read and write pages and files in the space",
		Tools: []service.Tool{
			{ID: "space.readPage", Name: "Read Page", Description: "Read a page's markdown", Parameters: []service.Parameter{page}, Returns: "string"},
			{ID: "space.writePage", Name: "Write Page", Description: "Replace a page's markdown", Parameters: []service.Parameter{page, {Name: "text", Type: "string", Required: true}}, Returns: "FileInfo"},
			{ID: "space.listPages", Name: "List Pages", Description: "List all page names", Returns: "array"},
			{ID: "space.readFile", Name: "Read File", Description: "Read a file as base64", Parameters: []service.Parameter{name}, Returns: "File"},
			{ID: "space.writeFile", Name: "Write File", Description: "Write base64 content to a file", Parameters: []service.Parameter{name, {Name: "data", Type: "string", Required: true}}, Returns: "FileInfo"},
			{ID: "space.deleteFile", Name: "Delete File", Description: "Delete a file", Parameters: []service.Parameter{name}, Returns: "boolean"},
			{ID: "space.fileExists", Name: "File Exists", Description: "Check whether a file exists", Parameters: []service.Parameter{name}, Returns: "boolean"},
			{ID: "space.list", Name: "List Files", Description: "List files matching a glob such as notes/**/*.png", Parameters: []service.Parameter{{Name: "pattern", Type: "string"}}, Returns: "array"},
			{ID: "space.readData", Name: "Read Data", Description: "Parse a JSON, YAML, TOML or CSV file", Parameters: []service.Parameter{name}, Returns: "object"},
			{ID: "space.writeData", Name: "Write Data", Description: "Encode a value as JSON, YAML, TOML or CSV by file extension", Parameters: []service.Parameter{name, {Name: "data", Type: "object", Required: true}}, Returns: "FileInfo"},
			{ID: "space.search", Name: "Search Pages", Description: "Find page lines containing a query", Parameters: []service.Parameter{{Name: "query", Type: "string", Required: true}, {Name: "limit", Type: "number"}}, Returns: "array"},
		},
	}
}

// Execute runs a space operation
func (p *Provider) Execute(ctx context.Context, toolID string, args []any) (any, error) {
	switch toolID {
	case "space.readPage":
		page, err := service.StringArg(args, 0, "page")
		if err != nil {
			return nil, err
		}
		return p.store.ReadPage(ctx, page)
	case "space.writePage":
		page, err := service.StringArg(args, 0, "page")
		if err != nil {
			return nil, err
		}
		text, err := service.StringArg(args, 1, "text")
		if err != nil {
			return nil, err
		}
		return p.store.Write(ctx, paths.PageFile(page), []byte(text))
	case "space.listPages":
		return p.store.Pages(), nil
	case "space.readFile":
		name, err := service.StringArg(args, 0, "name")
		if err != nil {
			return nil, err
		}
		data, meta, err := p.store.Read(ctx, name)
		if err != nil {
			return nil, err
		}
		return File{Data: base64.StdEncoding.EncodeToString(data), Meta: meta}, nil
	case "space.writeFile":
		name, err := service.StringArg(args, 0, "name")
		if err != nil {
			return nil, err
		}
		encoded, err := service.StringArg(args, 1, "data")
		if err != nil {
			return nil, err
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("argument data must be base64: %w", err)
		}
		return p.store.Write(ctx, name, data)
	case "space.deleteFile":
		name, err := service.StringArg(args, 0, "name")
		if err != nil {
			return nil, err
		}
		if err := p.store.Delete(ctx, name); err != nil {
			return nil, err
		}
		return true, nil
	case "space.fileExists":
		name, err := service.StringArg(args, 0, "name")
		if err != nil {
			return nil, err
		}
		return p.store.FileExists(name), nil
	case "space.list":
		return p.store.List(service.OptionalStringArg(args, 0, ""))
	case "space.readData":
		return p.readData(ctx, args)
	case "space.writeData":
		return p.writeData(ctx, args)
	case "space.search":
		return p.search(ctx, args)
	default:
		return nil, service.UnknownTool(toolID)
	}
}
