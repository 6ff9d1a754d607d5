package ast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultMaxFileSize is the largest source file the parser will accept.
const DefaultMaxFileSize = 8 * 1024 * 1024

// WarnFileSize is the size above which a parse logs a warning.
const WarnFileSize = 1 * 1024 * 1024

var (
	// ErrFileTooLarge is returned when content exceeds the configured limit.
	ErrFileTooLarge = fmt.Errorf("file exceeds max size")
	// ErrInvalidContent is returned when content is not valid UTF-8.
	ErrInvalidContent = fmt.Errorf("content is not valid UTF-8")
)

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxFileSize overrides the maximum accepted file size in bytes.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser extracts symbols, imports, and exports from TypeScript/JavaScript
// source files using tree-sitter.
//
// Thread Safety: Parser is safe for concurrent use. Each call to Parse
// constructs its own tree-sitter parser instance, matching tree-sitter's
// own single-goroutine-per-parser contract.
type Parser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// sourceKind is the per-extension grammar/mode chosen per spec 4.2.
type sourceKind struct {
	useTSX      bool
	isDeclaration bool
}

func kindForPath(filePath string) sourceKind {
	switch {
	case strings.HasSuffix(filePath, ".d.ts"):
		return sourceKind{useTSX: false, isDeclaration: true}
	case strings.HasSuffix(filePath, ".tsx"), strings.HasSuffix(filePath, ".jsx"):
		return sourceKind{useTSX: true}
	default:
		return sourceKind{useTSX: false}
	}
}

// Parse extracts a ParseResult from raw file content. It tolerates syntax
// errors: a file that fails to parse cleanly still returns as much of the
// declaration/import surface as tree-sitter's error-recovering tree exposes,
// with the error recorded in ParseResult.ParseErrors rather than returned
// as a Go error. Go errors are reserved for conditions that make extraction
// impossible altogether (oversized input, invalid UTF-8, cancellation).
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large file", "file", filePath, "size_bytes", len(content))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContent, filePath)
	}

	kind := kindForPath(filePath)
	parser := sitter.NewParser()
	if kind.useTSX {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &ParseResult{
		FilePath: filePath,
		Language: "typescript",
		Hash:     HashContent(content),
		Symbols:  make([]*Symbol, 0),
		Imports:  make([]Import, 0),
		Exports:  make([]Export, 0),
	}

	root := tree.RootNode()
	if root == nil {
		result.ParseErrors = append(result.ParseErrors, "tree-sitter returned nil root node")
		return result, nil
	}
	if root.HasError() {
		result.ParseErrors = append(result.ParseErrors, "source contains syntax errors")
	}

	p.extractImports(root, content, filePath, result)
	dynamicCount := 0
	p.extractDynamicImports(root, content, filePath, result, &dynamicCount)
	p.extractDeclarations(root, content, filePath, result)

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("result validation failed for %s: %w", filePath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}
	return result, nil
}

// extractImports walks top-level import_statement and CommonJS-require
// lexical declarations.
func (p *Parser) extractImports(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			p.processImportStatement(child, content, filePath, result)
		case "lexical_declaration":
			p.processCommonJSRequire(child, content, filePath, result)
		}
	}
}

func (p *Parser) processImportStatement(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	var specifier string
	var items []ImportItem
	var isNamespace, isTypeOnly bool
	var namespaceAlias string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			isTypeOnly = true
		case "import_clause":
			items, isNamespace, namespaceAlias = p.processImportClause(child, content)
		case "string":
			specifier = p.extractStringContent(child, content)
		}
	}

	if specifier == "" {
		return
	}
	if isNamespace {
		items = []ImportItem{{ImportedName: NamespaceSlot, LocalName: namespaceAlias}}
	}

	loc := nodeLocation(node, filePath)
	result.Imports = append(result.Imports, Import{
		Specifier:    specifier,
		Items:        items,
		IsNamespace:  isNamespace,
		IsSideEffect: len(items) == 0,
		IsTypeOnly:   isTypeOnly,
		Location:     loc,
	})
}

// processImportClause returns the named/default items, whether it is a
// namespace import, and the namespace's local alias.
func (p *Parser) processImportClause(node *sitter.Node, content []byte) (items []ImportItem, isNamespace bool, namespaceAlias string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name := string(content[child.StartByte():child.EndByte()])
			items = append(items, ImportItem{ImportedName: DefaultExportName, LocalName: name})
		case "namespace_import":
			isNamespace = true
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "identifier" {
					namespaceAlias = string(content[gc.StartByte():gc.EndByte()])
				}
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "import_specifier" {
					imported, local := p.extractSpecifierPair(gc, content)
					if imported != "" {
						items = append(items, ImportItem{ImportedName: imported, LocalName: local})
					}
				}
			}
		}
	}
	return items, isNamespace, namespaceAlias
}

// extractSpecifierPair returns (imported, local) for `a` or `a as b`.
func (p *Parser) extractSpecifierPair(node *sitter.Node, content []byte) (imported, local string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			if imported == "" {
				imported = string(content[child.StartByte():child.EndByte()])
			} else {
				local = string(content[child.StartByte():child.EndByte()])
			}
		}
	}
	if local == "" {
		local = imported
	}
	return imported, local
}

func (p *Parser) processCommonJSRequire(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		var name, specifier string
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "identifier":
				name = string(content[gc.StartByte():gc.EndByte()])
			case "call_expression":
				specifier = p.extractRequireCall(gc, content)
			}
		}
		if specifier != "" && name != "" {
			result.Imports = append(result.Imports, Import{
				Specifier:  specifier,
				Items:      []ImportItem{{ImportedName: NamespaceSlot, LocalName: name}},
				IsCommonJS: true,
				Location:   nodeLocation(node, filePath),
			})
		}
	}
}

// extractDynamicImports walks the whole tree, not just top-level
// statements, for `import("literal")` call expressions wherever they
// appear (inside functions, .then() chains, conditionals). Each becomes a
// namespace import: the members actually accessed off the resolved
// promise aren't statically knowable, so the whole module is treated as
// depended-on. A non-string-literal specifier (template literal,
// variable) is logged and skipped, since it would require runtime
// evaluation to resolve.
func (p *Parser) extractDynamicImports(node *sitter.Node, content []byte, filePath string, result *ParseResult, dynamicCount *int) {
	if node.Type() == "call_expression" {
		specifier, isDynamic := p.dynamicImportCallSpecifier(node, content)
		if isDynamic {
			if specifier == "" {
				p.logger.Warn("skipping dynamic import with non-string-literal specifier", "file", filePath)
			} else {
				localName := fmt.Sprintf("__dynamic_import_%d", *dynamicCount)
				result.Imports = append(result.Imports, Import{
					Specifier:   specifier,
					Items:       []ImportItem{{ImportedName: NamespaceSlot, LocalName: localName}},
					IsNamespace: true,
					IsDynamic:   true,
					Location:    nodeLocation(node, filePath),
				})
				*dynamicCount++
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.extractDynamicImports(node.Child(i), content, filePath, result, dynamicCount)
	}
}

// dynamicImportCallSpecifier reports whether node is an `import(...)` call
// (its callee is the bare `import` keyword, not an identifier) and, if
// so, the string-literal argument, if any.
func (p *Parser) dynamicImportCallSpecifier(node *sitter.Node, content []byte) (specifier string, isDynamic bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			isDynamic = true
		case "arguments":
			for j := 0; j < int(child.ChildCount()); j++ {
				arg := child.Child(j)
				if arg.Type() == "string" {
					specifier = p.extractStringContent(arg, content)
				}
			}
		}
	}
	return specifier, isDynamic
}

func (p *Parser) extractRequireCall(node *sitter.Node, content []byte) string {
	var funcName, specifier string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			funcName = string(content[child.StartByte():child.EndByte()])
		case "arguments":
			for j := 0; j < int(child.ChildCount()); j++ {
				arg := child.Child(j)
				if arg.Type() == "string" {
					specifier = p.extractStringContent(arg, content)
				}
			}
		}
	}
	if funcName == "require" {
		return specifier
	}
	return ""
}

// extractDeclarations walks top-level declarations and export statements.
func (p *Parser) extractDeclarations(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "export_statement":
			p.processExportStatement(child, content, filePath, result)
		case "function_declaration":
			if fn := p.processFunction(child, content, filePath, false); fn != nil {
				result.Symbols = append(result.Symbols, fn)
			}
		case "class_declaration":
			if cls := p.processClass(child, content, filePath, false); cls != nil {
				result.Symbols = append(result.Symbols, cls)
			}
		case "interface_declaration":
			if iface := p.processInterface(child, content, filePath, false); iface != nil {
				result.Symbols = append(result.Symbols, iface)
			}
		case "type_alias_declaration":
			if ta := p.processTypeAlias(child, content, filePath, false); ta != nil {
				result.Symbols = append(result.Symbols, ta)
			}
		case "enum_declaration":
			if enum := p.processEnum(child, content, filePath, false); enum != nil {
				result.Symbols = append(result.Symbols, enum)
			}
		case "lexical_declaration":
			p.processLexicalDeclaration(child, content, filePath, result, false)
		case "variable_declaration":
			p.processVariableDeclaration(child, content, filePath, result, false)
		case "ambient_declaration":
			p.processAmbientDeclaration(child, content, filePath, result)
		}
	}
}

// processExportStatement handles every `export ...` shape: local exported
// declarations, `export { a, b as c }` (local, no "from"), `export { a }
// from "./m"` (re-export), `export * from "./m"`, `export * as ns from
// "./m"`, and `export default <expr>`.
func (p *Parser) processExportStatement(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	isDefault := false
	var fromSpecifier string
	var exportClause *sitter.Node
	var isStar bool
	var starAlias string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "default":
			isDefault = true
		case "string":
			fromSpecifier = p.extractStringContent(child, content)
		case "export_clause":
			exportClause = child
		case "namespace_export":
			isStar = true
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "identifier" {
					starAlias = string(content[gc.StartByte():gc.EndByte()])
				}
			}
		case "*":
			isStar = true
		case "function_declaration":
			if fn := p.processFunction(child, content, filePath, true); fn != nil {
				if isDefault {
					fn.Name = DefaultExportName
					fn.ID = GenerateID(filePath, fn.StartLine, DefaultExportName)
				}
				result.Symbols = append(result.Symbols, fn)
			}
		case "class_declaration":
			if cls := p.processClass(child, content, filePath, true); cls != nil {
				if isDefault {
					cls.Name = DefaultExportName
					cls.ID = GenerateID(filePath, cls.StartLine, DefaultExportName)
				}
				result.Symbols = append(result.Symbols, cls)
			}
		case "abstract_class_declaration":
			if cls := p.processAbstractClass(child, content, filePath, true); cls != nil {
				result.Symbols = append(result.Symbols, cls)
			}
		case "interface_declaration":
			if iface := p.processInterface(child, content, filePath, true); iface != nil {
				result.Symbols = append(result.Symbols, iface)
			}
		case "type_alias_declaration":
			if ta := p.processTypeAlias(child, content, filePath, true); ta != nil {
				result.Symbols = append(result.Symbols, ta)
			}
		case "enum_declaration":
			if enum := p.processEnum(child, content, filePath, true); enum != nil {
				result.Symbols = append(result.Symbols, enum)
			}
		case "lexical_declaration":
			p.processLexicalDeclaration(child, content, filePath, result, true)
		default:
			// `export default <expr>` where expr is not a declaration form;
			// model the binding under the reserved default name with no
			// further structure.
			if isDefault && child.IsNamed() && child.Type() != "comment" {
				result.Symbols = append(result.Symbols, &Symbol{
					ID:        GenerateID(filePath, int(node.StartPoint().Row+1), DefaultExportName),
					Name:      DefaultExportName,
					Kind:      SymbolKindVariable,
					FilePath:  filePath,
					Exported:  true,
					StartLine: int(node.StartPoint().Row + 1),
					EndLine:   int(node.EndPoint().Row + 1),
					StartCol:  int(node.StartPoint().Column),
					EndCol:    int(node.EndPoint().Column),
				})
			}
		}
	}

	loc := nodeLocation(node, filePath)

	switch {
	case isStar && fromSpecifier != "":
		if starAlias != "" {
			result.Exports = append(result.Exports, Export{
				Name:         starAlias,
				ReexportFrom: fromSpecifier,
				ReexportedAs: NamespaceSlot,
				IsStarAll:    false,
				Location:     loc,
			})
		} else {
			result.Exports = append(result.Exports, Export{
				ReexportFrom: fromSpecifier,
				IsStarAll:    true,
				Location:     loc,
			})
		}
	case exportClause != nil:
		p.processExportClause(exportClause, content, fromSpecifier, loc, result)
	}
}

// processExportClause handles the `{ a, b as c }` portion of both
// `export { a, b as c }` and `export { a, b as c } from "./m"`.
func (p *Parser) processExportClause(node *sitter.Node, content []byte, fromSpecifier string, loc Location, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "export_specifier" {
			continue
		}
		var local, exportedAs string
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			if gc.Type() == "identifier" {
				if local == "" {
					local = string(content[gc.StartByte():gc.EndByte()])
				} else {
					exportedAs = string(content[gc.StartByte():gc.EndByte()])
				}
			}
		}
		if local == "" {
			continue
		}
		name := local
		if exportedAs != "" {
			name = exportedAs
		}
		result.Exports = append(result.Exports, Export{
			Name:         name,
			ReexportFrom: fromSpecifier,
			ReexportedAs: local,
			Location:     loc,
		})
	}
}

func (p *Parser) processAmbientDeclaration(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "module" {
			if ns := p.processNamespace(child, content, filePath); ns != nil {
				result.Symbols = append(result.Symbols, ns)
			}
		}
	}
}

func (p *Parser) processNamespace(node *sitter.Node, content []byte, filePath string) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" || child.Type() == "nested_identifier" {
			name = string(content[child.StartByte():child.EndByte()])
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:        GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:      name,
		Kind:      SymbolKindNamespace,
		FilePath:  filePath,
		Exported:  true,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
}

func (p *Parser) processFunction(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			name = string(content[child.StartByte():child.EndByte()])
			break
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:       name,
		Kind:       SymbolKindFunction,
		FilePath:   filePath,
		Exported:   exported,
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
	}
}

func (p *Parser) processClass(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_identifier" {
			name = string(content[child.StartByte():child.EndByte()])
			break
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:       name,
		Kind:       SymbolKindClass,
		FilePath:   filePath,
		Exported:   exported,
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
	}
}

func (p *Parser) processAbstractClass(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	return p.processClass(node, content, filePath, exported)
}

func (p *Parser) processInterface(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_identifier" {
			name = string(content[child.StartByte():child.EndByte()])
			break
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:       name,
		Kind:       SymbolKindInterface,
		FilePath:   filePath,
		Exported:   exported,
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
	}
}

func (p *Parser) processTypeAlias(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_identifier" {
			name = string(content[child.StartByte():child.EndByte()])
			break
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:       name,
		Kind:       SymbolKindType,
		FilePath:   filePath,
		Exported:   exported,
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
	}
}

func (p *Parser) processEnum(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			name = string(content[child.StartByte():child.EndByte()])
			break
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:       name,
		Kind:       SymbolKindEnum,
		FilePath:   filePath,
		Exported:   exported,
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
	}
}

// processLexicalDeclaration handles `const`/`let`, possibly with multiple
// comma-separated declarators (`export const a = 1, b = 2`), each becoming
// its own Symbol spanning only its own declarator per spec 4.3.
func (p *Parser) processLexicalDeclaration(node *sitter.Node, content []byte, filePath string, result *ParseResult, exported bool) {
	var declKind string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "const", "let":
			declKind = child.Type()
		case "variable_declarator":
			if v := p.processVariableDeclarator(child, content, filePath, declKind, exported); v != nil {
				result.Symbols = append(result.Symbols, v)
			}
		}
	}
}

func (p *Parser) processVariableDeclaration(node *sitter.Node, content []byte, filePath string, result *ParseResult, exported bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "variable_declarator" {
			if v := p.processVariableDeclarator(child, content, filePath, "var", exported); v != nil {
				result.Symbols = append(result.Symbols, v)
			}
		}
	}
}

func (p *Parser) processVariableDeclarator(node *sitter.Node, content []byte, filePath string, declKind string, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			name = string(content[child.StartByte():child.EndByte()])
			break
		}
	}
	if name == "" {
		return nil
	}
	kind := SymbolKindVariable
	if declKind == "const" {
		kind = SymbolKindConstant
	}
	return &Symbol{
		ID:        GenerateID(filePath, int(node.StartPoint().Row+1), name),
		Name:      name,
		Kind:      kind,
		FilePath:  filePath,
		Exported:  exported,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
}

func (p *Parser) extractStringContent(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string_fragment" {
			return string(content[child.StartByte():child.EndByte()])
		}
	}
	return strings.Trim(string(content[node.StartByte():node.EndByte()]), `"'`)
}

func (p *Parser) getPrecedingComment(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	prev := node.PrevSibling()
	if prev != nil && prev.Type() == "comment" {
		comment := string(content[prev.StartByte():prev.EndByte()])
		if strings.HasPrefix(comment, "/**") {
			return comment
		}
	}
	parent := node.Parent()
	if parent != nil && parent.Type() == "export_statement" {
		if pp := parent.PrevSibling(); pp != nil && pp.Type() == "comment" {
			comment := string(content[pp.StartByte():pp.EndByte()])
			if strings.HasPrefix(comment, "/**") {
				return comment
			}
		}
	}
	return ""
}

func nodeLocation(node *sitter.Node, filePath string) Location {
	return Location{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
}
