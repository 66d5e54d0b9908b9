package model

// DiffRecord is one fenced diff block extracted from a model reply.
type DiffRecord struct {
	// Filename is the repository-relative path named by both the
	// `--- a/` and `+++ b/` headers.
	Filename string
	// Patch is the hunk body between the headers and the closing fence,
	// trimmed of surrounding whitespace.
	Patch string
}

// PatchedFile is the reconstructed content of a single file after every
// diff record naming it has been applied.
type PatchedFile struct {
	Path    string
	Content string
	// Records is the number of diff records folded into Content.
	Records int
}

// Summary holds the results of an operation for display.
type Summary struct {
	Patched  []string
	Missing  []string
	Written  []string
	Skipped  int
	Warnings []string
	Target   string
	Message  string
}
