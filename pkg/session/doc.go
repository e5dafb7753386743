/*
Package session serializes invocations that share a checkpoint.

The traversal reads the checkpoint at the start of an invocation and writes it
at the end, so two overlapping invocations would both resume from the same
point and duplicate rows. Manager holds an in-process lock per key and, when a
DistributedLocker is configured, a cross-process lease as well.
*/
package session
