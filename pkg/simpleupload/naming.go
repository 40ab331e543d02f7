package simpleupload

import (
	"github.com/google/uuid"
)

type strategyKind int

const (
	kindDefault strategyKind = iota
	kindLiteral
	kindAnonymous
	kindComputed
)

// NameStrategy decides the base name (without extension) of the stored
// object. The zero value keeps the name the client declared.
type NameStrategy struct {
	kind    strategyKind
	literal string
	fn      func(UploadContext) string
}

// KeepName stores the object under the client's file name
func KeepName() NameStrategy {
	return NameStrategy{}
}

// LiteralName stores every object under the same base name
func LiteralName(name string) NameStrategy {
	return NameStrategy{kind: kindLiteral, literal: name}
}

// AnonymousName replaces the client's name with a random UUID
func AnonymousName() NameStrategy {
	return NameStrategy{kind: kindAnonymous}
}

// ComputedName derives the base name from the upload context. An empty
// result falls back to the client's name.
func ComputedName(fn func(UploadContext) string) NameStrategy {
	if fn == nil {
		return NameStrategy{}
	}
	return NameStrategy{kind: kindComputed, fn: fn}
}

// IsAnonymous reports whether the strategy generates random names
func (s NameStrategy) IsAnonymous() bool {
	return s.kind == kindAnonymous
}

// Resolve returns the base name for the upload
func (s NameStrategy) Resolve(uc UploadContext) string {
	var name string
	switch s.kind {
	case kindLiteral:
		name = s.literal
	case kindAnonymous:
		name = uuid.NewString()
	case kindComputed:
		name = s.fn(uc)
	}
	if name == "" {
		return uc.Name
	}
	return name
}

// PathStrategy decides the directory an object is stored under. The zero
// value stores objects at the bucket root.
type PathStrategy struct {
	kind    strategyKind
	literal string
	fn      func(UploadContext) string
}

// NoPath stores objects at the bucket root
func NoPath() PathStrategy {
	return PathStrategy{}
}

// StaticPath stores every object under dir
func StaticPath(dir string) PathStrategy {
	return PathStrategy{kind: kindLiteral, literal: dir}
}

// ComputedPath derives the directory from the upload context
func ComputedPath(fn func(UploadContext) string) PathStrategy {
	if fn == nil {
		return PathStrategy{}
	}
	return PathStrategy{kind: kindComputed, fn: fn}
}

// Resolve returns the directory for the upload, "" for none
func (s PathStrategy) Resolve(uc UploadContext) string {
	switch s.kind {
	case kindLiteral:
		return s.literal
	case kindComputed:
		return s.fn(uc)
	default:
		return ""
	}
}

// DataProvider produces the "data" member of the response. The zero value
// yields nil.
type DataProvider struct {
	kind  strategyKind
	value any
	fn    func(UploadContext) any
}

// NoData omits extra response data
func NoData() DataProvider {
	return DataProvider{}
}

// StaticData returns the same value with every response
func StaticData(v any) DataProvider {
	return DataProvider{kind: kindLiteral, value: v}
}

// ComputedData derives response data from the completed upload context,
// including the final key.
func ComputedData(fn func(UploadContext) any) DataProvider {
	if fn == nil {
		return DataProvider{}
	}
	return DataProvider{kind: kindComputed, fn: fn}
}

// Resolve evaluates the provider
func (p DataProvider) Resolve(uc UploadContext) any {
	switch p.kind {
	case kindLiteral:
		return p.value
	case kindComputed:
		return p.fn(uc)
	default:
		return nil
	}
}
