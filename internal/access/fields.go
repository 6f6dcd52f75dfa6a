// Package access decides which ticket fields each role may read and write.
package access

import (
	"sort"

	"github.com/spec-kit/ar-tracker/internal/domain"
)

// Field names a ticket attribute using its wire name.
type Field string

const (
	FieldARNumber          Field = "arNumber"
	FieldTitle             Field = "title"
	FieldDescription       Field = "description"
	FieldProduct           Field = "product"
	FieldSubProduct        Field = "subProduct"
	FieldSeverity          Field = "severity"
	FieldPriority          Field = "priority"
	FieldStatus            Field = "status"
	FieldRequestorID       Field = "requestorId"
	FieldRequestorUsername Field = "requestorUsername"
	FieldAssignee          Field = "assignee"
	FieldAssigneeEmail     Field = "assigneeEmail"
	FieldProgressLog       Field = "progressLog"
	FieldResolutionNotes   Field = "resolutionNotes"
	FieldCreatedAt         Field = "createdAt"
	FieldUpdatedAt         Field = "updatedAt"
)

// FieldSet is an unordered set of fields.
type FieldSet map[Field]struct{}

func newFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Sorted lists the set for stable rendering.
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var commonVisible = []Field{
	FieldARNumber, FieldTitle, FieldDescription, FieldProduct, FieldSubProduct,
	FieldSeverity, FieldPriority, FieldStatus, FieldRequestorID, FieldRequestorUsername,
	FieldAssignee, FieldAssigneeEmail, FieldProgressLog, FieldCreatedAt, FieldUpdatedAt,
}

// progressLog is append-only through status changes and is never directly editable.
var commonEditable = []Field{FieldTitle, FieldDescription, FieldStatus}

// VisibleFields returns the fields a role may read.
func VisibleFields(role domain.Role) FieldSet {
	set := newFieldSet(commonVisible...)
	if role == domain.RoleStaff {
		set[FieldResolutionNotes] = struct{}{}
	}
	return set
}

// EditableFields returns the fields a role may write after creation.
func EditableFields(role domain.Role) FieldSet {
	set := newFieldSet(commonEditable...)
	if role == domain.RoleStaff {
		set[FieldResolutionNotes] = struct{}{}
	}
	return set
}

// CanEdit reports whether role may write f.
func CanEdit(role domain.Role, f Field) bool {
	return EditableFields(role).Has(f)
}

// CanGenerateReport gates report and export capabilities.
func CanGenerateReport(role domain.Role) bool {
	return role == domain.RoleStaff
}

// Redact returns a copy of t without the fields role may not read.
func Redact(t *domain.Ticket, role domain.Role) *domain.Ticket {
	cp := t.Clone()
	if cp == nil {
		return nil
	}
	if !VisibleFields(role).Has(FieldResolutionNotes) {
		cp.ResolutionNotes = ""
	}
	return cp
}
