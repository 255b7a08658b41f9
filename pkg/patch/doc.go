// Package patch interprets marker-delimited edit blocks embedded in model
// output and applies them to a project tree.
//
// Input text is scanned for three block forms: replace blocks that rewrite a
// whole file, patch blocks that carry unified-diff hunks, and single-line
// delete markers. Everything between and around the blocks is ignored, so a
// full chat response can be fed in unmodified. Blocks apply independently in
// input order; one failure never stops the rest of the run. Both a real
// filesystem rooted at a directory and an in-memory file map are supported
// as targets, which makes the package straightforward to embed in editors
// and testing utilities.
package patch
