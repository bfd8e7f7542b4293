package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jsonlogs/internal/catalog"
	"jsonlogs/internal/logentry"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceScheme   = "logs"
	resourceMIMEType = "application/json"
)

func resourceURI(name string) string {
	return resourceScheme + "://" + name
}

func resourceDescription(f catalog.FileInfo) string {
	return fmt.Sprintf("Size: %d bytes, Modified: %s", f.Size, f.Modified.Format(time.RFC3339Nano))
}

// parseResourceURI extracts the file name from logs://<name>.
func parseResourceURI(uri string) (string, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		scheme, rest, _ = strings.Cut(uri, ":")
	}
	if scheme != resourceScheme {
		return "", fmt.Errorf("Unsupported URI scheme: %s", scheme)
	}

	name := strings.TrimLeft(rest, "/")
	if name == "" {
		return "", errors.New("No filename specified in URI")
	}
	return name, nil
}

// registerResourceTemplate makes logs://{name} readable for files that appear
// between two resource syncs.
func (s *Server) registerResourceTemplate() {
	tmpl := mcp.NewResourceTemplate(
		resourceURI("{name}"),
		"Log file",
		mcp.WithTemplateDescription("Parsed entries of a JSON log file in the log directory"),
		mcp.WithTemplateMIMEType(resourceMIMEType),
	)
	s.mcpServer.AddResourceTemplate(tmpl, s.handleReadResource)
}

// syncResources registers one resource per file and removes resources whose
// file is gone. Unchanged registrations are left alone.
func (s *Server) syncResources(files []catalog.FileInfo) {
	s.resMu.Lock()
	defer s.resMu.Unlock()

	seen := make(map[string]bool, len(files))
	added := 0
	for _, f := range files {
		uri := resourceURI(f.Name)
		desc := resourceDescription(f)
		seen[uri] = true

		if prev, ok := s.resources[uri]; ok && prev == desc {
			continue
		}
		s.mcpServer.AddResource(mcp.NewResource(uri,
			"Log file: "+f.Name,
			mcp.WithResourceDescription(desc),
			mcp.WithMIMEType(resourceMIMEType),
		), s.handleReadResource)
		s.resources[uri] = desc
		added++
	}

	removed := 0
	for uri := range s.resources {
		if !seen[uri] {
			s.mcpServer.RemoveResource(uri)
			delete(s.resources, uri)
			removed++
		}
	}

	s.metrics.SetCatalogFiles(len(s.resources))

	if added > 0 || removed > 0 {
		s.logger.Debug("Synced log file resources", "total", len(s.resources), "added", added, "removed", removed)
	}
}

func (s *Server) handleReadResource(ctx context.Context, request mcp.ReadResourceRequest) (contents []mcp.ResourceContents, err error) {
	defer func() { s.metrics.RecordResourceRead(err != nil) }()

	uri := request.Params.URI
	name, err := parseResourceURI(uri)
	if err != nil {
		return nil, err
	}

	entries, err := s.analyzer.ReadFile(ctx, name, s.config.ResourceMaxLines)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("Log file not found: %s", name)
		}
		return nil, err
	}
	if entries == nil {
		entries = []*logentry.Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: resourceMIMEType,
			Text:     string(data),
		},
	}, nil
}
