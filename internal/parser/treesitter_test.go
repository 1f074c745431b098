//go:build cgo

package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deperrors "depscope/internal/errors"
	"depscope/internal/modgraph"
)

func parse(t *testing.T, path, source string) *FileFacts {
	t.Helper()
	facts, err := NewParser().Parse(context.Background(), path, []byte(source))
	require.NoError(t, err)
	return facts
}

func importBySpec(t *testing.T, facts *FileFacts, spec string) Import {
	t.Helper()
	for _, imp := range facts.Imports {
		if imp.Specifier == spec {
			return imp
		}
	}
	t.Fatalf("no import of %q in %+v", spec, facts.Imports)
	return Import{}
}

func exportByName(t *testing.T, facts *FileFacts, name string) Export {
	t.Helper()
	for _, exp := range facts.Exports {
		if exp.Name == name {
			return exp
		}
	}
	t.Fatalf("no export %q in %+v", name, facts.Exports)
	return Export{}
}

func TestParse_StaticImports(t *testing.T) {
	facts := parse(t, "src/app.ts", `
import React from "react";
import * as utils from "./utils";
import { a, b as c } from "./lib";
import Default, { named } from "./mixed";
import "./polyfill";
`)

	assert.Equal(t, LangTypeScript, facts.Language)
	require.Len(t, facts.Imports, 5)

	assert.Equal(t, []string{"default"}, importBySpec(t, facts, "react").Identifiers)
	assert.Equal(t, []string{"*"}, importBySpec(t, facts, "./utils").Identifiers)
	assert.Equal(t, []string{"a", "b"}, importBySpec(t, facts, "./lib").Identifiers)
	assert.Equal(t, []string{"default", "named"}, importBySpec(t, facts, "./mixed").Identifiers)
	assert.Empty(t, importBySpec(t, facts, "./polyfill").Identifiers)

	lib := importBySpec(t, facts, "./lib")
	assert.Equal(t, 4, lib.Position.Line)
	assert.False(t, lib.TypeOnly)
	assert.False(t, lib.Dynamic)
}

func TestParse_TypeOnlyImports(t *testing.T) {
	facts := parse(t, "src/types.ts", `
import type { User } from "./user";
import { type Order } from "./order";
import { type Item, makeItem } from "./item";
`)

	assert.True(t, importBySpec(t, facts, "./user").TypeOnly)
	assert.True(t, importBySpec(t, facts, "./order").TypeOnly)
	assert.False(t, importBySpec(t, facts, "./item").TypeOnly)
}

func TestParse_DynamicAndRequire(t *testing.T) {
	facts := parse(t, "src/loader.js", `
const fs = require("fs");
const { join, resolve } = require("path");
const chalk = require("chalk").default;

async function load() {
  const mod = await import("./plugin");
  return mod;
}
`)

	assert.Equal(t, LangJavaScript, facts.Language)
	assert.Equal(t, []string{"*"}, importBySpec(t, facts, "fs").Identifiers)
	assert.Equal(t, []string{"join", "resolve"}, importBySpec(t, facts, "path").Identifiers)
	assert.Equal(t, []string{"default"}, importBySpec(t, facts, "chalk").Identifiers)

	plugin := importBySpec(t, facts, "./plugin")
	assert.True(t, plugin.Dynamic)
	assert.Equal(t, []string{"*"}, plugin.Identifiers)
	assert.False(t, importBySpec(t, facts, "fs").Dynamic)
}

func TestParse_DynamicImportPromiseMembers(t *testing.T) {
	facts := parse(t, "src/routes.js", `
import("./lazy").then(({ k }) => k);
import("./fallback").catch(() => null);

async function pick() {
  const { a, b } = await import("./picked");
  return (await import("./member")).render(a, b);
}
`)

	assert.Equal(t, []string{"*"}, importBySpec(t, facts, "./lazy").Identifiers)
	assert.Equal(t, []string{"*"}, importBySpec(t, facts, "./fallback").Identifiers)
	assert.Equal(t, []string{"a", "b"}, importBySpec(t, facts, "./picked").Identifiers)
	assert.Equal(t, []string{"render"}, importBySpec(t, facts, "./member").Identifiers)
}

func TestParse_ComputedSpecifierIgnored(t *testing.T) {
	facts := parse(t, "src/x.js", "const name = 'a';\nimport(`./locale/${name}`);\n")
	assert.Empty(t, facts.Imports)
}

func TestParse_DeclarationExports(t *testing.T) {
	facts := parse(t, "src/model.ts", `
/**
 * Formats a date.
 */
export function formatDate(d: Date): string {
  return d.toISOString();
}

export class Store {
  items = [];
  add(item: string) {}
}

export const LIMIT = 10, OTHER = 2;
export let counter = 0;

export interface User {
  id: string;
  name(): string;
}

export type ID = string;

export enum Color { Red, Green = "g" }
`)

	format := exportByName(t, facts, "formatDate")
	assert.Equal(t, modgraph.KindFunction, format.Kind)
	assert.Equal(t, "Formats a date.", format.Doc)
	assert.Equal(t, "export function formatDate(d: Date): string", "export "+format.Signature)
	assert.False(t, format.IsReExport)

	store := exportByName(t, facts, "Store")
	assert.Equal(t, modgraph.KindClass, store.Kind)
	assert.Equal(t, []string{"items", "add"}, store.Members)

	assert.Equal(t, modgraph.KindConst, exportByName(t, facts, "LIMIT").Kind)
	assert.Equal(t, modgraph.KindConst, exportByName(t, facts, "OTHER").Kind)
	assert.Equal(t, modgraph.KindVariable, exportByName(t, facts, "counter").Kind)

	user := exportByName(t, facts, "User")
	assert.Equal(t, modgraph.KindInterface, user.Kind)
	assert.Equal(t, []string{"id", "name"}, user.Members)

	assert.Equal(t, modgraph.KindType, exportByName(t, facts, "ID").Kind)

	color := exportByName(t, facts, "Color")
	assert.Equal(t, modgraph.KindEnum, color.Kind)
	assert.Equal(t, []string{"Red", "Green"}, color.Members)
}

func TestParse_DefaultExports(t *testing.T) {
	t.Run("named function", func(t *testing.T) {
		facts := parse(t, "a.ts", "export default function Button() {}\n")
		require.Len(t, facts.Exports, 1)
		assert.Equal(t, "Button", facts.Exports[0].Name)
		assert.True(t, facts.Exports[0].IsDefault)
		assert.Equal(t, modgraph.KindFunction, facts.Exports[0].Kind)
	})

	t.Run("local identifier", func(t *testing.T) {
		facts := parse(t, "a.ts", "class Card {}\nexport default Card;\n")
		require.Len(t, facts.Exports, 1)
		assert.Equal(t, "Card", facts.Exports[0].Name)
		assert.Equal(t, modgraph.KindClass, facts.Exports[0].Kind)
		assert.True(t, facts.Exports[0].IsDefault)
	})

	t.Run("expression", func(t *testing.T) {
		facts := parse(t, "a.js", "export default { a: 1 };\n")
		require.Len(t, facts.Exports, 1)
		assert.Equal(t, "default", facts.Exports[0].Name)
		assert.True(t, facts.Exports[0].IsDefault)
	})
}

func TestParse_ReExports(t *testing.T) {
	facts := parse(t, "src/index.ts", `
export * from "./a";
export { formatDate as format, parse } from "./date";
export { default as Card } from "./card";
`)

	star := exportByName(t, facts, "*")
	assert.True(t, star.IsReExport)
	assert.Equal(t, "./a", star.Source)
	assert.Equal(t, "*", star.OriginalName)

	format := exportByName(t, facts, "format")
	assert.True(t, format.IsReExport)
	assert.Equal(t, "./date", format.Source)
	assert.Equal(t, "formatDate", format.OriginalName)

	card := exportByName(t, facts, "Card")
	assert.Equal(t, "default", card.OriginalName)

	assert.True(t, facts.ReExportsOnly())

	// Each re-export statement also imports from its source.
	assert.Equal(t, []string{"*"}, importBySpec(t, facts, "./a").Identifiers)
	assert.Equal(t, []string{"formatDate", "parse"}, importBySpec(t, facts, "./date").Identifiers)
	assert.True(t, importBySpec(t, facts, "./date").ReExport)
	assert.Equal(t, []string{"default"}, importBySpec(t, facts, "./card").Identifiers)
}

func TestParse_ExportOfImportedBinding(t *testing.T) {
	facts := parse(t, "src/index.ts", `
import { helper } from "./helper";
const local = 1;
export { helper, local as renamed };
`)

	helper := exportByName(t, facts, "helper")
	assert.True(t, helper.IsReExport)
	assert.Equal(t, "./helper", helper.Source)
	assert.Equal(t, "helper", helper.OriginalName)

	renamed := exportByName(t, facts, "renamed")
	assert.False(t, renamed.IsReExport)
	assert.Equal(t, modgraph.KindConst, renamed.Kind)

	// The binding is imported once; export does not add another import.
	assert.Len(t, facts.Imports, 1)
	assert.False(t, facts.ReExportsOnly())
}

func TestParse_TSX(t *testing.T) {
	facts := parse(t, "src/App.tsx", `
import { Button } from "./Button";
export const App = () => <Button label="hi" />;
`)
	assert.Equal(t, LangTSX, facts.Language)
	assert.Equal(t, []string{"Button"}, importBySpec(t, facts, "./Button").Identifiers)
	assert.Equal(t, modgraph.KindConst, exportByName(t, facts, "App").Kind)
	assert.False(t, facts.HasErrors)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), "style.css", []byte("a {}"))
	assert.True(t, deperrors.Is(err, deperrors.ParseFailed))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.mjs")
	require.NoError(t, os.WriteFile(path, []byte("export const x = 1;\n"), 0o644))

	facts, err := NewParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, facts.Path)
	assert.Equal(t, "x", facts.Exports[0].Name)

	_, err = NewParser().ParseFile(context.Background(), filepath.Join(dir, "missing.js"))
	assert.True(t, deperrors.Is(err, deperrors.ParseFailed))
}

func TestLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"a.js", LangJavaScript, true},
		{"a.cjs", LangJavaScript, true},
		{"a.jsx", LangJavaScript, true},
		{"a.mts", LangTypeScript, true},
		{"a.d.ts", LangTypeScript, true},
		{"A.TSX", LangTSX, true},
		{"a.json", "", false},
	}
	for _, tc := range tests {
		got, ok := LanguageFromPath(tc.path)
		assert.Equal(t, tc.want, got, tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
	}
}
