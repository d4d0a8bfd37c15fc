package search

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
)

// maxScanFileBytes skips files too large to be useful search content.
const maxScanFileBytes = 1 << 20

var skippedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"target":       true,
}

// ScanRepo walks a repository and extracts indexable documents: one per
// top-level Go declaration and one per markdown file. The module of a
// document is the slash path of its containing directory ("." at the root).
func ScanRepo(root string) ([]Document, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repo root: %w", err)
	}

	var docs []Document
	err = godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			name := de.Name()
			if de.IsDir() {
				if skippedDirs[name] || (strings.HasPrefix(name, ".") && path != root) || strings.HasPrefix(name, "_") {
					return filepath.SkipDir
				}
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			switch {
			case strings.HasSuffix(name, "_test.go"):
				// Test files add noise without adding precedent.
			case strings.HasSuffix(name, ".go"):
				fileDocs, err := scanGoFile(path, rel)
				if err != nil {
					log.Warn().Err(err).Str("file", rel).Msg("skipping unparsable go file")
					return nil
				}
				docs = append(docs, fileDocs...)
			case strings.HasSuffix(name, ".md"):
				doc, err := scanMarkdownFile(path, rel)
				if err != nil {
					log.Warn().Err(err).Str("file", rel).Msg("skipping unreadable markdown file")
					return nil
				}
				docs = append(docs, doc)
			}

			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			log.Warn().Err(err).Str("path", path).Msg("walk error, skipping node")
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repo walk failed: %w", err)
	}

	return docs, nil
}

// scanGoFile extracts one document per top-level declaration.
func scanGoFile(path, rel string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxScanFileBytes {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	module := moduleOf(rel)
	var docs []Document

	addSymbol := func(name string, doc *ast.CommentGroup, detail string) {
		if name == "" || name == "_" {
			return
		}
		summary := firstCommentLine(doc)
		if summary == "" {
			summary = detail
		}
		docs = append(docs, Document{
			ID:      rel + ":" + name,
			Kind:    KindCodeSymbol,
			Path:    rel,
			Module:  module,
			Symbol:  name,
			Summary: summary,
			Content: detail,
		})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			addSymbol(d.Name.Name, d.Doc, fmt.Sprintf("func %s in package %s", d.Name.Name, file.Name.Name))
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch sp := spec.(type) {
				case *ast.TypeSpec:
					doc := sp.Doc
					if doc == nil {
						doc = d.Doc
					}
					addSymbol(sp.Name.Name, doc, fmt.Sprintf("type %s in package %s", sp.Name.Name, file.Name.Name))
				case *ast.ValueSpec:
					for _, ident := range sp.Names {
						doc := sp.Doc
						if doc == nil {
							doc = d.Doc
						}
						addSymbol(ident.Name, doc, fmt.Sprintf("%s %s in package %s", declKeyword(d.Tok), ident.Name, file.Name.Name))
					}
				}
			}
		}
	}

	return docs, nil
}

// scanMarkdownFile produces one documentation entry per markdown file,
// summarized by its first heading or paragraph line.
func scanMarkdownFile(path, rel string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}
	if info.Size() > maxScanFileBytes {
		return Document{}, fmt.Errorf("file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	content := string(data)

	summary := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			summary = line
			break
		}
	}

	return Document{
		ID:      rel,
		Kind:    KindDocEntry,
		Path:    rel,
		Module:  moduleOf(rel),
		Summary: summary,
		Content: content,
	}, nil
}

// moduleOf maps a repo-relative file path to its module identifier: the
// slash path of the containing directory, "." for root-level files.
func moduleOf(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "" {
		return "."
	}
	return dir
}

// firstCommentLine returns the first non-empty line of a doc comment.
func firstCommentLine(group *ast.CommentGroup) string {
	if group == nil {
		return ""
	}
	for _, line := range strings.Split(group.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

func declKeyword(tok token.Token) string {
	switch tok {
	case token.CONST:
		return "const"
	case token.VAR:
		return "var"
	default:
		return tok.String()
	}
}
