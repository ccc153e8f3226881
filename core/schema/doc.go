/*
Package schema reads Field catalogs: YAML documents listing field
definitions, optionally grouped into named sets.

A minimal catalog:

	fields:
	  - id: 92488c2d-3217-4e31-8aeb-889f34f0e210
	    key: col
	    label: Pos (X)
	    fieldType: number
	  - id: 7f6db5b1-7919-486c-9ea5-95df65018d6a
	    key: childBlocks
	    fieldType: repeater
	    children: [92488c2d-3217-4e31-8aeb-889f34f0e210]

	sets:
	  Block: [7f6db5b1-7919-486c-9ea5-95df65018d6a]

Repeater children are field ids and must resolve inside the catalog. Check
rejects duplicate ids, unknown field types, children on non-repeaters,
unresolved children, and cyclic repeater references.

Builtin returns the catalog of fields the essential item types need. Seed
writes a catalog into an item store.
*/
package schema
