package stats

import "fmt"

// Language is the toolchain verdict for a module.
type Language int

const (
	Unknown Language = iota
	Rust
	Emscripten
	// LikelyEmscripten marks modules matching minified Emscripten import
	// patterns. The evidence is empirical and weaker than Emscripten.
	LikelyEmscripten
	AssemblyScript
	Blazor
	Go
)

var languageNames = [...]string{
	Unknown:          "Unknown",
	Rust:             "Rust",
	Emscripten:       "Emscripten",
	LikelyEmscripten: "LikelyEmscripten",
	AssemblyScript:   "AssemblyScript",
	Blazor:           "Blazor",
	Go:               "Go",
}

func (l Language) String() string {
	if l < 0 || int(l) >= len(languageNames) {
		return fmt.Sprintf("Language(%d)", int(l))
	}
	return languageNames[l]
}

// MarshalText encodes the verdict by name.
func (l Language) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(languageNames) {
		return nil, fmt.Errorf("invalid language %d", int(l))
	}
	return []byte(languageNames[l]), nil
}

// UnmarshalText decodes a verdict name.
func (l *Language) UnmarshalText(text []byte) error {
	for i, name := range languageNames {
		if name == string(text) {
			*l = Language(i)
			return nil
		}
	}
	return fmt.Errorf("unknown language %q", text)
}

// Proposals counts usage of post-MVP features.
type Proposals struct {
	Atomics          int `json:"atomics"`
	RefTypes         int `json:"ref_types"`
	SIMD             int `json:"simd"`
	TailCalls        int `json:"tail_calls"`
	Bulk             int `json:"bulk"`
	MultiValue       int `json:"multi_value"`
	NonTrappingConv  int `json:"non_trapping_conv"`
	SignExtend       int `json:"sign_extend"`
	MutableExternals int `json:"mutable_externals"`
	BigintExternals  int `json:"bigint_externals"`
}

func (p *Proposals) add(o Proposals) {
	p.Atomics += o.Atomics
	p.RefTypes += o.RefTypes
	p.SIMD += o.SIMD
	p.TailCalls += o.TailCalls
	p.Bulk += o.Bulk
	p.MultiValue += o.MultiValue
	p.NonTrappingConv += o.NonTrappingConv
	p.SignExtend += o.SignExtend
	p.MutableExternals += o.MutableExternals
	p.BigintExternals += o.BigintExternals
}

// Categories counts instructions by what they operate on.
type Categories struct {
	LoadStore     int `json:"load_store"`
	LocalVar      int `json:"local_var"`
	GlobalVar     int `json:"global_var"`
	Table         int `json:"table"`
	Memory        int `json:"memory"`
	ControlFlow   int `json:"control_flow"`
	DirectCalls   int `json:"direct_calls"`
	IndirectCalls int `json:"indirect_calls"`
	Constants     int `json:"constants"`
	WaitNotify    int `json:"wait_notify"`
	Other         int `json:"other"`
}

// Sum returns the total over all categories. Tail calls count in two
// categories, so Sum exceeds the instruction total by the tail call count.
func (c Categories) Sum() int {
	return c.LoadStore + c.LocalVar + c.GlobalVar + c.Table + c.Memory +
		c.ControlFlow + c.DirectCalls + c.IndirectCalls + c.Constants +
		c.WaitNotify + c.Other
}

func (c *Categories) add(o Categories) {
	c.LoadStore += o.LoadStore
	c.LocalVar += o.LocalVar
	c.GlobalVar += o.GlobalVar
	c.Table += o.Table
	c.Memory += o.Memory
	c.ControlFlow += o.ControlFlow
	c.DirectCalls += o.DirectCalls
	c.IndirectCalls += o.IndirectCalls
	c.Constants += o.Constants
	c.WaitNotify += o.WaitNotify
	c.Other += o.Other
}

// Instructions aggregates instruction counts across all function bodies.
type Instructions struct {
	Total      int        `json:"total"`
	Proposals  Proposals  `json:"proposals"`
	Categories Categories `json:"categories"`
}

func (in *Instructions) add(o Instructions) {
	in.Total += o.Total
	in.Proposals.add(o.Proposals)
	in.Categories.add(o.Categories)
}

// Sizes holds re-encoded byte counts per section class. Total is the
// length of the input and includes the header and section framing.
type Sizes struct {
	Code        int `json:"code"`
	Init        int `json:"init"`
	Externals   int `json:"externals"`
	Types       int `json:"types"`
	Custom      int `json:"custom"`
	Descriptors int `json:"descriptors"`
	Total       int `json:"total"`
}

// Sections returns the sum of all section buckets, excluding Total.
func (s Sizes) Sections() int {
	return s.Code + s.Init + s.Externals + s.Types + s.Custom + s.Descriptors
}

// Externals counts imports or exports by kind. Tags are not counted.
type Externals struct {
	Funcs    int `json:"funcs"`
	Memories int `json:"memories"`
	Globals  int `json:"globals"`
	Tables   int `json:"tables"`
}

// Stats is the profile of a single module.
type Stats struct {
	Funcs          int          `json:"funcs"`
	Language       Language     `json:"language"`
	Instr          Instructions `json:"instr"`
	Size           Sizes        `json:"size"`
	Imports        Externals    `json:"imports"`
	Exports        Externals    `json:"exports"`
	CustomSections []string     `json:"custom_sections"`
	HasStart       bool         `json:"has_start"`
}
