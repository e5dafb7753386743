/*
Package domain contains the core data model of the sharewalk traversal.

It defines the entities shared by the engine, the checkpoint codec and every
adapter. The package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Node: A container (folder) or leaf item (file) handle as returned by a tree provider.
  - Cursor: An opaque continuation token for one paginated listing.
  - Frame: Per-container traversal state (its two cursors) held on the Stack.
  - Stack: The ordered frames of an in-progress depth-first traversal.
  - Record: One reportable row written to the output table.
  - RunMetadata: The status cells shown to the operator next to the output.
*/
package domain
