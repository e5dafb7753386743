/*
Package checkpoint encodes a traversal stack for persistence between invocations.

The wire format is versioned JSON. Decoding is strict: unknown fields, trailing
data, unsupported versions and schema violations are rejected with
domain.ErrInvalidCheckpoint instead of producing a corrupt stack. An empty blob
decodes to domain.ErrCheckpointNotFound, which callers treat as "no checkpoint".

	cp := checkpoint.New(runID, stack, time.Now())
	blob, err := checkpoint.Encode(cp)
	...
	cp, err = checkpoint.Decode(blob)
	stack := cp.Stack()
*/
package checkpoint
