package astbuilder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".py": "python",
}

// Lazily initialized on first call via sync.Once.
var (
	pythonGrammar *sitter.Language
	grammarOnce   sync.Once
)

func grammar() *sitter.Language {
	grammarOnce.Do(func() {
		pythonGrammar = python.GetLanguage()
	})
	return pythonGrammar
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// ParseSource parses Python source into a tree-sitter tree. The caller owns
// the tree and must Close it.
func ParseSource(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return tree, nil
}
