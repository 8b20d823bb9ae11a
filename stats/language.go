package stats

import (
	"strings"

	"github.com/wippyai/wasm-stats/wasm"
)

// languageRule pairs a verdict with the predicate that selects it.
type languageRule struct {
	match   func(imports []wasm.Import, exports []wasm.Export) bool
	verdict Language
}

// languageRules is evaluated top to bottom and the first match wins.
// Blazor modules also carry Emscripten glue, so Blazor comes first.
// AssemblyScript has no rule.
var languageRules = []languageRule{
	{verdict: Blazor, match: func(imports []wasm.Import, _ []wasm.Export) bool {
		return anyImport(imports, func(i wasm.Import) bool { return strings.Contains(i.Name, "blazor") })
	}},
	{verdict: Emscripten, match: func(imports []wasm.Import, _ []wasm.Export) bool {
		return anyImport(imports, func(i wasm.Import) bool { return strings.Contains(i.Name, "emscripten") })
	}},
	{verdict: Go, match: func(imports []wasm.Import, _ []wasm.Export) bool {
		return anyImport(imports, func(i wasm.Import) bool { return i.Module == "go" })
	}},
	// wasm-bindgen artifacts
	{verdict: Rust, match: func(imports []wasm.Import, exports []wasm.Export) bool {
		if anyImport(imports, func(i wasm.Import) bool {
			return strings.Contains(i.Name, "wbindgen") ||
				strings.Contains(i.Name, "wbg") ||
				i.Module == "wbg" ||
				i.Module == "wbindgen"
		}) {
			return true
		}
		for _, e := range exports {
			if strings.Contains(e.Name, "wbindgen") {
				return true
			}
		}
		return false
	}},
	// Minified Emscripten builds rename env imports to single letters.
	{verdict: LikelyEmscripten, match: func(imports []wasm.Import, _ []wasm.Export) bool {
		return hasImportPair(imports, "a") || hasImportPair(imports, "env")
	}},
}

// InferLanguage guesses the toolchain that produced a module from its
// import and export names.
func InferLanguage(imports []wasm.Import, exports []wasm.Export) Language {
	for _, rule := range languageRules {
		if rule.match(imports, exports) {
			return rule.verdict
		}
	}
	return Unknown
}

func anyImport(imports []wasm.Import, pred func(wasm.Import) bool) bool {
	for _, i := range imports {
		if pred(i) {
			return true
		}
	}
	return false
}

// hasImportPair reports whether module imports both "a" and "b".
func hasImportPair(imports []wasm.Import, module string) bool {
	var a, b bool
	for _, i := range imports {
		if i.Module != module {
			continue
		}
		switch i.Name {
		case "a":
			a = true
		case "b":
			b = true
		}
	}
	return a && b
}
