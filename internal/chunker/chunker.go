package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// RawChunk is one top-level declaration extracted from a source file.
type RawChunk struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Content   string
}

// ASTChunker parses source files using tree-sitter and extracts the
// top-level declarations (functions, methods, type definitions) that make
// up a file's condensed embedding snippet.
type ASTChunker struct {
	registry *Registry
}

// NewASTChunker creates a chunker backed by the given registry.
func NewASTChunker(r *Registry) *ASTChunker {
	return &ASTChunker{registry: r}
}

// Chunk parses the source and returns its top-level declarations in
// document order, stopping once their combined content reaches budget bytes
// (budget <= 0 means unlimited). The caller concatenates these into one
// embedding snippet per file, so there is no need to fan an oversized
// declaration out into overlapping windows the way a chunk-per-embedding
// index would: a declaration that alone exceeds the remaining budget is
// simply truncated to fill it. If no grammar is registered for the file, it
// returns nil (caller should use the plain-text fallback).
func (c *ASTChunker) Chunk(path string, src []byte, budget int) ([]RawChunk, error) {
	spec, lang := c.registry.Lookup(path)
	if spec == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile query for %s: %w", lang, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var captures []capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var chunkNode *sitter.Node
		var nameStr string
		for _, cap := range m.Captures {
			capName := q.CaptureNameForId(cap.Index)
			switch capName {
			case "chunk":
				chunkNode = cap.Node
			case "name":
				nameStr = cap.Node.Content(src)
			}
		}
		if chunkNode == nil {
			continue
		}
		captures = append(captures, capture{
			name:      nameStr,
			kind:      chunkNode.Type(),
			startLine: int(chunkNode.StartPoint().Row) + 1,
			endLine:   int(chunkNode.EndPoint().Row) + 1,
			startByte: chunkNode.StartByte(),
			endByte:   chunkNode.EndByte(),
		})
	}

	// Deduplicate: when captures overlap, keep only the outer (larger) node.
	captures = dedup(captures)

	lines := strings.Split(string(src), "\n")
	var chunks []RawChunk
	total := 0
	for _, cap := range captures {
		if budget > 0 && total >= budget {
			break
		}
		content := enrichContent(path, lang, cap.kind, cap.name, lines, cap.startLine, cap.endLine)
		if budget > 0 && total+len(content) > budget {
			content = content[:budget-total]
		}
		chunks = append(chunks, RawChunk{
			Name:      cap.name,
			Kind:      cap.kind,
			StartLine: cap.startLine,
			EndLine:   cap.endLine,
			Content:   content,
		})
		total += len(content)
	}

	return chunks, nil
}

// dedup removes captures that are fully contained within a larger capture.
func dedup(caps []capture) []capture {
	if len(caps) <= 1 {
		return caps
	}
	// Sort by start byte ascending, then by size descending (larger first).
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].startByte != caps[j].startByte {
			return caps[i].startByte < caps[j].startByte
		}
		return (caps[i].endByte - caps[i].startByte) > (caps[j].endByte - caps[j].startByte)
	})

	var result []capture
	var lastEnd uint32
	for _, c := range caps {
		if c.startByte >= lastEnd || lastEnd == 0 {
			result = append(result, c)
			if c.endByte > lastEnd {
				lastEnd = c.endByte
			}
		}
		// Skip captures contained within the previous one.
	}
	return result
}

func enrichContent(path, lang, kind, name string, lines []string, startLine, endLine int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// File: %s\n", path)
	fmt.Fprintf(&b, "// Language: %s\n", lang)
	if name != "" {
		fmt.Fprintf(&b, "// %s: %s\n", kind, name)
	}
	// Lines are 1-indexed.
	start := startLine - 1
	end := endLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		b.WriteString(lines[i])
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

type capture struct {
	name      string
	kind      string
	startLine int
	endLine   int
	startByte uint32
	endByte   uint32
}
