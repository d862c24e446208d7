package model

import (
	"fmt"
	"slices"
)

// Mutation is a write against a single document: SetMutation,
// PatchMutation, DeleteMutation or VerifyMutation.
type Mutation interface {
	Key() DocumentKey
	Precondition() Precondition
	isMutation()
}

type PreconditionKind int

const (
	PreconditionNone PreconditionKind = iota
	PreconditionExists
	PreconditionUpdateTime
)

// Precondition restricts when the backend applies a mutation.
type Precondition struct {
	Kind       PreconditionKind
	Exists     bool
	UpdateTime SnapshotVersion
}

func NoPrecondition() Precondition {
	return Precondition{}
}

func ExistsPrecondition(exists bool) Precondition {
	return Precondition{Kind: PreconditionExists, Exists: exists}
}

func UpdateTimePrecondition(v SnapshotVersion) Precondition {
	return Precondition{Kind: PreconditionUpdateTime, UpdateTime: v}
}

func (p Precondition) IsNone() bool {
	return p.Kind == PreconditionNone
}

// FieldMask lists the fields a patch touches.
type FieldMask struct {
	Fields []FieldPath
}

func (m FieldMask) Equal(another FieldMask) bool {
	return slices.EqualFunc(m.Fields, another.Fields, FieldPath.Equal)
}

// SetMutation overwrites the whole document.
type SetMutation struct {
	key  DocumentKey
	val  ObjectValue
	cond Precondition
}

// PatchMutation updates only the masked fields.
type PatchMutation struct {
	key  DocumentKey
	val  ObjectValue
	mask FieldMask
	cond Precondition
}

type DeleteMutation struct {
	key  DocumentKey
	cond Precondition
}

// VerifyMutation checks the precondition without writing.
type VerifyMutation struct {
	key  DocumentKey
	cond Precondition
}

func NewSetMutation(key DocumentKey, val ObjectValue, cond Precondition) SetMutation {
	return SetMutation{key, val, cond}
}

func NewPatchMutation(key DocumentKey, val ObjectValue, mask FieldMask, cond Precondition) PatchMutation {
	return PatchMutation{key, val, mask, cond}
}

func NewDeleteMutation(key DocumentKey, cond Precondition) DeleteMutation {
	return DeleteMutation{key, cond}
}

func NewVerifyMutation(key DocumentKey, cond Precondition) VerifyMutation {
	return VerifyMutation{key, cond}
}

func (m SetMutation) Key() DocumentKey           { return m.key }
func (m SetMutation) Precondition() Precondition { return m.cond }
func (m SetMutation) Value() ObjectValue         { return m.val }

func (m PatchMutation) Key() DocumentKey           { return m.key }
func (m PatchMutation) Precondition() Precondition { return m.cond }
func (m PatchMutation) Value() ObjectValue         { return m.val }
func (m PatchMutation) Mask() FieldMask            { return m.mask }

func (m DeleteMutation) Key() DocumentKey           { return m.key }
func (m DeleteMutation) Precondition() Precondition { return m.cond }

func (m VerifyMutation) Key() DocumentKey           { return m.key }
func (m VerifyMutation) Precondition() Precondition { return m.cond }

func (SetMutation) isMutation()    {}
func (PatchMutation) isMutation()  {}
func (DeleteMutation) isMutation() {}
func (VerifyMutation) isMutation() {}

func EqualMutations(a, b Mutation) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !a.Key().Equal(b.Key()) || a.Precondition() != b.Precondition() {
		return false
	}
	switch a := a.(type) {
	case SetMutation:
		bm, ok := b.(SetMutation)
		return ok && a.val.Equal(bm.val)
	case PatchMutation:
		bm, ok := b.(PatchMutation)
		return ok && a.val.Equal(bm.val) && a.mask.Equal(bm.mask)
	case DeleteMutation:
		_, ok := b.(DeleteMutation)
		return ok
	case VerifyMutation:
		_, ok := b.(VerifyMutation)
		return ok
	default:
		panic(fmt.Errorf("unknown mutation type %T", a))
	}
}
