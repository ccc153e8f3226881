package item

// Known item types are the type ids the system ships handlers for.
const (
	TypeItem            = "Item"
	TypeArchetype       = "Archetype"
	TypeCustomItem      = "CustomItem"
	TypeField           = "Field"
	TypeAccessRole      = "AccessRole"
	TypeBlockDefinition = "BlockDefinition"
	TypeBlock           = "Block"
	TypeModule          = "Module"
	TypePage            = "Page"
)

// KnownTypes lists the built-in item types.
var KnownTypes = []string{
	TypeItem, TypeArchetype, TypeCustomItem, TypeField, TypeAccessRole,
	TypeBlockDefinition, TypeBlock, TypeModule, TypePage,
}

// IsKnownType reports whether t is one of KnownTypes.
func IsKnownType(t string) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Archetype describes a custom item type: its name, the type id its items
// carry, and the fields attached to it.
type Archetype struct {
	Item
	Name           string   `json:"name" yaml:"name"`
	ItemType       string   `json:"itemType" yaml:"itemType"`
	AttachedFields []string `json:"attachedFields" yaml:"attachedFields"`
	ScopeID        string   `json:"scopeId,omitempty" yaml:"scopeId,omitempty"`
}

// ArchetypeFromRecord decodes an archetype record.
func ArchetypeFromRecord(rec Record) (Archetype, error) {
	var a Archetype
	if err := Decode(WithoutBase(rec), &a); err != nil {
		return Archetype{}, err
	}
	base, err := FromRecord(rec)
	if err != nil {
		return Archetype{}, err
	}
	a.Item = base
	return a, nil
}
