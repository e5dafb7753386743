/*
Package sharewalk finds the shared files and folders of a large hosted tree
(Google Drive, or any ports.TreeProvider) within short, time-boxed invocations.

# Concept

A full walk of a large Drive does not fit in one execution window. sharewalk
walks depth-first, one listing page per step, and stops when its budget runs
out. The traversal stack, with one pagination cursor per open folder, is saved
as a checkpoint. The next invocation loads it and continues exactly where the
previous one stopped, so every node is visited once across any number of
invocations.

Each visited node is classified for the acting identity. It is Private only
when its link sharing is off, the actor owns it and nobody else can view or
edit it. Everything else is Shared and appended to the output table with its
path relative to the starting folder.

# Usage

	tree := memory.NewTree("me@example.com")
	scanner, err := sharewalk.New(tree, tree, memory.NewStore(), memory.NewOutput())
	if err != nil {
		log.Fatal(err)
	}

	res, err := scanner.Invoke(ctx, sharewalk.Invocation{Budget: 5 * time.Minute})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.State, res.Records)

The cmd/sharewalk binary wires the Drive, Sheets, Redis, Badger and SQLite
adapters from a YAML configuration.
*/
package sharewalk
