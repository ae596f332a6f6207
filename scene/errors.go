package scene

import "fmt"

// MalformedDocumentError marks a document that lacks a structurally required
// section. The whole import aborts.
type MalformedDocumentError struct {
	Section string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("Malformed document: missing %q section", e.Section)
}

// CyclicHierarchyError marks a model parent chain that revisits a node. No
// partial scene can be produced from such a document.
type CyclicHierarchyError struct {
	Object int64
}

func (e *CyclicHierarchyError) Error() string {
	return fmt.Sprintf("Cyclic model hierarchy through object %v", e.Object)
}

// UnsupportedMappingError marks a geometry layer with a mapping/reference mode
// combination outside the supported set. The mesh is skipped, the import
// continues.
type UnsupportedMappingError struct {
	Layer     string
	Mapping   string
	Reference string
}

func (e *UnsupportedMappingError) Error() string {
	return fmt.Sprintf("Unsupported %v layer mapping %q/%q", e.Layer, e.Mapping, e.Reference)
}

type WarningKind int

const (
	WarningDanglingReference WarningKind = iota
	WarningUnsupportedMapping
)

func (k WarningKind) String() string {
	switch k {
	case WarningDanglingReference:
		return "DanglingReference"
	case WarningUnsupportedMapping:
		return "UnsupportedMapping"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning records a recoverable defect of an otherwise successful import.
type Warning struct {
	Kind    WarningKind
	Object  int64
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%v (object %v): %v", w.Kind, w.Object, w.Message)
}
