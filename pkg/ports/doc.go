/*
Package ports defines the driven ports (interfaces) of the sharewalk engine.

These interfaces decouple the traversal from concrete implementations, so the
same engine can walk Google Drive or an in-memory tree, persist its checkpoint
in Redis, BadgerDB or a file, and write its report to SQLite or a spreadsheet.

# Key Interfaces

  - TreeProvider: Resolves containers and pages through their leaf items and child containers.
  - SharingSource: Reports the sharing metadata of a node and the acting identity.
  - CheckpointStore: Gets, sets and deletes the serialized traversal under a key.
  - OutputStore / OutputTable: The append-only report and its status cells.
  - DistributedLocker: Serializes invocations across processes.
*/
package ports
