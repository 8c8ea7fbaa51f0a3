package refdict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erraggy/refdict/referrors"
	"go.yaml.in/yaml/v4"
)

// SourceFormat represents the format of a fetched document
type SourceFormat string

const (
	// SourceFormatYAML indicates the document was in YAML format
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates the document was in JSON format
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatUnknown indicates the format could not be determined
	SourceFormatUnknown SourceFormat = "unknown"
)

// fetchDocument is the default loader: it resolves the document identity to
// raw bytes, sniffs the format, and decodes into a generic tree.
// Schemeless identities are filesystem paths relative to the working
// directory; file:// and http(s):// URLs are also supported.
func (s *DocumentStore) fetchDocument(documentID string) (any, error) {
	data, contentType, err := s.fetchBytes(documentID)
	if err != nil {
		return nil, &referrors.DocumentParseError{
			DocumentID: documentID,
			Message:    "failed to fetch",
			Cause:      err,
		}
	}

	maxSize := s.MaxFileSize
	if maxSize == 0 {
		maxSize = MaxFileSize
	}
	if int64(len(data)) > maxSize {
		return nil, &referrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        maxSize,
			Actual:       int64(len(data)),
			Message:      documentID,
		}
	}

	format := detectFormat(documentID, contentType, data)
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, &referrors.DocumentParseError{
			DocumentID: documentID,
			Message:    fmt.Sprintf("failed to decode as %s", format),
			Cause:      err,
		}
	}
	s.log().Debug("document fetched", "document_id", documentID, "format", string(format), "bytes", len(data))
	return doc, nil
}

// fetchBytes retrieves raw content for a document identity. Returns the
// bytes and, for HTTP sources, the Content-Type header.
func (s *DocumentStore) fetchBytes(documentID string) ([]byte, string, error) {
	switch {
	case isURL(documentID):
		return s.fetchURL(documentID)
	case strings.HasPrefix(documentID, "file://"):
		u, err := url.Parse(documentID)
		if err != nil {
			return nil, "", fmt.Errorf("invalid file URL: %w", err)
		}
		data, err := os.ReadFile(u.Path)
		return data, "", err
	default:
		// Relative paths resolve against the working directory.
		data, err := os.ReadFile(filepath.Clean(documentID))
		return data, "", err
	}
}

// isURL determines if the given path is a URL (http:// or https://)
func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// fetchURL fetches content from a URL and returns the bytes and Content-Type header
func (s *DocumentStore) fetchURL(urlStr string) ([]byte, string, error) {
	// Use custom client if provided, otherwise create default with timeout
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	userAgent := s.UserAgent
	if userAgent == "" {
		userAgent = UserAgent()
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// detectFormat sniffs the document format from the identity's extension,
// the Content-Type header, and finally the content itself.
func detectFormat(documentID, contentType string, data []byte) SourceFormat {
	if format := detectFormatFromPath(documentID); format != SourceFormatUnknown {
		return format
	}
	if format := detectFormatFromContentType(contentType); format != SourceFormatUnknown {
		return format
	}
	return detectFormatFromContent(data)
}

// detectFormatFromPath detects the source format from a file path or URL path
func detectFormatFromPath(path string) SourceFormat {
	if parsedURL, err := url.Parse(path); err == nil && parsedURL.Path != "" {
		path = parsedURL.Path
	}
	switch filepath.Ext(path) {
	case ".json":
		return SourceFormatJSON
	case ".yaml", ".yml":
		return SourceFormatYAML
	default:
		return SourceFormatUnknown
	}
}

// detectFormatFromContentType detects the format from a Content-Type header value
func detectFormatFromContentType(contentType string) SourceFormat {
	if contentType == "" {
		return SourceFormatUnknown
	}
	contentType = strings.ToLower(contentType)
	// Remove charset and other parameters
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(contentType)

	switch contentType {
	case "application/json":
		return SourceFormatJSON
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return SourceFormatYAML
	}
	return SourceFormatUnknown
}

// detectFormatFromContent attempts to detect the format from the content bytes
// JSON typically starts with '{' or '[', while YAML does not
func detectFormatFromContent(data []byte) SourceFormat {
	trimmed := bytes.TrimLeft(data, " \t\n\r")
	if len(trimmed) == 0 {
		return SourceFormatUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return SourceFormatJSON
	}
	return SourceFormatUnknown
}

// decodeDocument decodes bytes into a generic document tree. YAML is the
// default because it is a superset of JSON; detected JSON goes through
// encoding/json so numeric types match what JSON consumers expect.
func decodeDocument(data []byte, format SourceFormat) (any, error) {
	if format == SourceFormatJSON {
		var doc any
		if err := json.Unmarshal(data, &doc); err == nil {
			return doc, nil
		}
		// Content-type sniffs lie sometimes; fall through to YAML.
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
