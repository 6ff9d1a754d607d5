package ast

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_FunctionAndClassDeclarations(t *testing.T) {
	src := []byte(`
export function add(a: number, b: number): number {
  return a + b;
}

class Helper {
  run() {}
}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/math.ts")
	require.NoError(t, err)
	require.False(t, result.HasErrors())

	names := symbolNames(result.Symbols)
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "Helper")

	add := findSymbol(result.Symbols, "add")
	require.NotNil(t, add)
	assert.True(t, add.Exported)
	assert.Equal(t, SymbolKindFunction, add.Kind)

	helper := findSymbol(result.Symbols, "Helper")
	require.NotNil(t, helper)
	assert.False(t, helper.Exported)
}

func TestParser_NamedAndDefaultImports(t *testing.T) {
	src := []byte(`
import React from "react";
import { useState, useEffect as useWatch } from "react";
import * as path from "path";
import "./polyfill";
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/app.tsx")
	require.NoError(t, err)
	require.Len(t, result.Imports, 4)

	var defaultImport, namedImport, nsImport, sideEffect *Import
	for i := range result.Imports {
		imp := &result.Imports[i]
		switch imp.Specifier {
		case "react":
			if imp.IsNamespace {
				continue
			}
			if len(imp.Items) == 1 && imp.Items[0].ImportedName == DefaultExportName {
				defaultImport = imp
			} else {
				namedImport = imp
			}
		case "path":
			nsImport = imp
		case "./polyfill":
			sideEffect = imp
		}
	}

	require.NotNil(t, defaultImport)
	assert.Equal(t, "React", defaultImport.Items[0].LocalName)

	require.NotNil(t, namedImport)
	require.Len(t, namedImport.Items, 2)
	assert.Equal(t, "useState", namedImport.Items[0].ImportedName)
	assert.Equal(t, "useEffect", namedImport.Items[1].ImportedName)
	assert.Equal(t, "useWatch", namedImport.Items[1].LocalName)

	require.NotNil(t, nsImport)
	assert.True(t, nsImport.IsNamespace)
	assert.Equal(t, "path", nsImport.Items[0].LocalName)

	require.NotNil(t, sideEffect)
	assert.True(t, sideEffect.IsSideEffect)
}

func TestParser_ReexportForms(t *testing.T) {
	src := []byte(`
export { widget } from "./widget";
export { helper as helperAlias } from "./helper";
export * from "./utils";
export * as ns from "./ns-module";
export { local1, local2 };
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/index.ts")
	require.NoError(t, err)

	var direct, aliased, star, nsStar, bare []Export
	for _, ex := range result.Exports {
		switch {
		case ex.IsStarAll:
			star = append(star, ex)
		case ex.ReexportFrom == "./ns-module":
			nsStar = append(nsStar, ex)
		case ex.ReexportFrom == "./widget":
			direct = append(direct, ex)
		case ex.ReexportFrom == "./helper":
			aliased = append(aliased, ex)
		case ex.ReexportFrom == "":
			bare = append(bare, ex)
		}
	}

	require.Len(t, direct, 1)
	assert.Equal(t, "widget", direct[0].Name)

	require.Len(t, aliased, 1)
	assert.Equal(t, "helperAlias", aliased[0].Name)
	assert.Equal(t, "helper", aliased[0].ReexportedAs)

	require.Len(t, star, 1)
	assert.Equal(t, "./utils", star[0].ReexportFrom)

	require.Len(t, nsStar, 1)
	assert.Equal(t, "ns", nsStar[0].Name)
	assert.Equal(t, "./ns-module", nsStar[0].ReexportFrom)

	require.Len(t, bare, 2)
}

func TestParser_DefaultExportOfExpression(t *testing.T) {
	src := []byte(`
const config = { retries: 3 };
export default config;
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/config.ts")
	require.NoError(t, err)

	def := findSymbol(result.Symbols, DefaultExportName)
	require.NotNil(t, def)
	assert.True(t, def.Exported)
}

func TestParser_DefaultExportOfFunction(t *testing.T) {
	src := []byte(`
export default function handler(req, res) {
  return res;
}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/handler.ts")
	require.NoError(t, err)

	def := findSymbol(result.Symbols, DefaultExportName)
	require.NotNil(t, def)
	assert.Equal(t, SymbolKindFunction, def.Kind)
}

func TestParser_CommonJSRequire(t *testing.T) {
	src := []byte(`
const fs = require("fs");
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/legacy.js")
	require.NoError(t, err)
	require.Len(t, result.Imports, 1)
	assert.True(t, result.Imports[0].IsCommonJS)
	assert.Equal(t, "fs", result.Imports[0].Specifier)
	assert.Equal(t, "fs", result.Imports[0].Items[0].LocalName)
}

func TestParser_DynamicImportBecomesNamespaceImport(t *testing.T) {
	src := []byte(`
async function loadPlugin() {
  const plugin = await import('./plugin');
  return plugin;
}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/loader.ts")
	require.NoError(t, err)
	require.Len(t, result.Imports, 1)
	imp := result.Imports[0]
	assert.Equal(t, "./plugin", imp.Specifier)
	assert.True(t, imp.IsNamespace)
	assert.True(t, imp.IsDynamic)
	require.Len(t, imp.Items, 1)
	assert.Equal(t, NamespaceSlot, imp.Items[0].ImportedName)
	assert.Equal(t, "__dynamic_import_0", imp.Items[0].LocalName)
}

func TestParser_MultipleDynamicImportsGetDistinctLocalNames(t *testing.T) {
	src := []byte(`
import('./a');
import('./b').then(m => m.run());
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/lazy.ts")
	require.NoError(t, err)
	require.Len(t, result.Imports, 2)
	assert.Equal(t, "./a", result.Imports[0].Specifier)
	assert.Equal(t, "__dynamic_import_0", result.Imports[0].Items[0].LocalName)
	assert.Equal(t, "./b", result.Imports[1].Specifier)
	assert.Equal(t, "__dynamic_import_1", result.Imports[1].Items[0].LocalName)
}

func TestParser_DynamicImportNonStringLiteralSkipped(t *testing.T) {
	src := []byte(`
const moduleName = './dynamic-module';
const mod = await import(moduleName);
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/variable-import.ts")
	require.NoError(t, err)
	for _, imp := range result.Imports {
		assert.False(t, imp.IsDynamic, "variable specifier should not be recorded as a dynamic import")
	}
}

func TestParser_StaticAndDynamicImportsCoexist(t *testing.T) {
	src := []byte(`
import { helper } from './helper';

async function lazy() {
  return import('./LazyComponent');
}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/mixed.ts")
	require.NoError(t, err)
	require.Len(t, result.Imports, 2)

	static := result.Imports[0]
	assert.False(t, static.IsDynamic)
	assert.Equal(t, "./helper", static.Specifier)

	dynamic := result.Imports[1]
	assert.True(t, dynamic.IsDynamic)
	assert.Equal(t, "./LazyComponent", dynamic.Specifier)
}

func TestParser_SyntaxErrorRecordedNotFatal(t *testing.T) {
	src := []byte(`export function broken( {{{`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/broken.ts")
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
}

func TestParser_RejectsOversizedFile(t *testing.T) {
	p := NewParser(WithMaxFileSize(10))
	_, err := p.Parse(context.Background(), []byte("export const x = 1;"), "src/big.ts")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "exceeds"))
}

func TestParser_RejectsInvalidUTF8(t *testing.T) {
	p := NewParser()
	_, err := p.Parse(context.Background(), []byte{0xff, 0xfe, 0xfd}, "src/bad.ts")
	require.Error(t, err)
}

func TestParser_DeclarationFile(t *testing.T) {
	src := []byte(`
export interface Widget {
  id: string;
}
`)
	p := NewParser()
	result, err := p.Parse(context.Background(), src, "src/widget.d.ts")
	require.NoError(t, err)
	widget := findSymbol(result.Symbols, "Widget")
	require.NotNil(t, widget)
	assert.Equal(t, SymbolKindInterface, widget.Kind)
}

func symbolNames(symbols []*Symbol) []string {
	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.Name)
	}
	return names
}

func findSymbol(symbols []*Symbol, name string) *Symbol {
	for _, s := range symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}
