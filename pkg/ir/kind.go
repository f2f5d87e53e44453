package ir

// Kind tags what a Node computes. The op registry (pkg/registry) keys its
// classification predicates on Kind, exactly as the original's dispatch
// keys on a Symbol.
type Kind string

// Core kinds every pass understands structurally, independent of any
// particular op's numerics.
const (
	KindParam          Kind = "Param"          // graph input, has no producer
	KindConstant       Kind = "Constant"       // literal folded at construction time
	KindCall           Kind = "Call"           // invokes a callee subgraph; removed by Inline
	KindAttributeRead  Kind = "AttributeRead"  // reads a module attribute; graph is unfrozen if present
	KindTupleConstruct Kind = "TupleConstruct"
	KindListConstruct  Kind = "ListConstruct"
	KindListUnpack     Kind = "ListUnpack"
)

// Numeric/tensor op kinds. Mutating variants (suffixed Inplace) are
// rewritten to their functional form by the RemoveMutation pass; Copy
// variants are the ReplaceWithCopy pass's targets.
const (
	KindAdd           Kind = "aten::add"
	KindAddInplace    Kind = "aten::add_"
	KindMul           Kind = "aten::mul"
	KindMulInplace    Kind = "aten::mul_"
	KindSum           Kind = "aten::sum"
	KindReshape       Kind = "aten::reshape"
	KindPermute       Kind = "aten::permute"
	KindPermuteCopy   Kind = "aten::permute_copy"
	KindNarrow        Kind = "aten::narrow"
	KindNarrowCopy    Kind = "aten::narrow_copy"
	KindRelu          Kind = "aten::relu"
	KindReluFusedAdd  Kind = "fused::add_relu" // DomainFusions target: Add -> Relu
)

// IsView reports whether k denotes a view op: one whose output aliases the
// storage of one of its inputs rather than computing fresh data. This is
// structural metadata about Kind, not a registry predicate, because it is
// needed before any registry lookup (e.g. to decide ReplaceWithCopy
// candidacy).
func (k Kind) IsView() bool {
	switch k {
	case KindReshape, KindPermute, KindNarrow:
		return true
	default:
		return false
	}
}

// CopyVariant returns the `_copy` kind for a view op, and whether one
// exists. Used by the ReplaceWithCopy pass.
func (k Kind) CopyVariant() (Kind, bool) {
	switch k {
	case KindPermute:
		return KindPermuteCopy, true
	case KindNarrow:
		return KindNarrowCopy, true
	default:
		return "", false
	}
}

// InplaceFunctionalForm returns the functional (non-mutating) kind for an
// in-place op, and whether k is in fact an in-place op. Used by the
// RemoveMutation pass.
func (k Kind) InplaceFunctionalForm() (Kind, bool) {
	switch k {
	case KindAddInplace:
		return KindAdd, true
	case KindMulInplace:
		return KindMul, true
	default:
		return "", false
	}
}

// Type tags the static type of a Value.
type Type uint8

const (
	TypeNone Type = iota
	TypeTensor
	TypeTuple
	TypeList
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeTensor:
		return "Tensor"
	case TypeTuple:
		return "Tuple"
	case TypeList:
		return "List"
	default:
		return "Other"
	}
}
