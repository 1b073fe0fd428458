// Package normalisers turns uploaded file bytes into plain text.
//
// Each sub-package handles one family of formats and declares the file
// extensions it accepts. The Registry in this package picks a normaliser
// by extension and is what the upload service talks to.
package normalisers
