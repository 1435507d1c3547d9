package extract

import (
	"path/filepath"
	"strings"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/chunker"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/chunker/languages"
)

// codeExtractor produces a condensed snippet for recognized source
// languages by concatenating the AST chunker's top-level declarations
// (function/method/type signatures and bodies) instead of the raw byte
// head of the file, so the embedded text favors the file's actual
// definitions over imports/license headers. Falls back to nil (letting
// plainExtract take the raw head) on parse failure or unrecognized files.
type codeExtractor struct {
	registry *chunker.Registry
	ast      *chunker.ASTChunker
}

func newCodeExtractor() *codeExtractor {
	reg := chunker.NewRegistry()
	languages.RegisterGo(reg)
	languages.RegisterJavaScript(reg)
	languages.RegisterTypeScript(reg)
	languages.RegisterPython(reg)
	return &codeExtractor{registry: reg, ast: chunker.NewASTChunker(reg)}
}

func (c *codeExtractor) extract(path string, data []byte, maxBytes int) *string {
	if spec, _ := c.registry.Lookup(path); spec == nil {
		return nil
	}
	chunks, err := c.ast.Chunk(path, data, maxBytes)
	if err != nil || len(chunks) == 0 {
		return nil
	}

	var b strings.Builder
	for _, ch := range chunks {
		b.WriteString(ch.Content)
		b.WriteByte('\n')
	}
	text := strings.TrimSpace(b.String())
	if maxBytes > 0 && len(text) > maxBytes {
		text = text[:maxBytes]
	}
	if text == "" {
		return nil
	}
	return &text
}

func codeMime(path string) string {
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "go":
		return "text/x-go"
	case "py", "pyi":
		return "text/x-python"
	case "js", "jsx":
		return "text/javascript"
	case "ts", "tsx":
		return "text/typescript"
	default:
		return "text/plain"
	}
}
