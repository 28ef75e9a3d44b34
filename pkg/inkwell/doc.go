// Package inkwell provides the publishing core for a git-backed blog:
// an editor submits frontmatter, markdown body, and a slug; the service
// validates the submission, serializes the canonical document, migrates
// staged images out of ephemeral blob storage into the repository, and
// commits the result.
//
// It exposes a single Service interface backed by pluggable stores:
// DocumentStore implementations (GitHub, local filesystem, memory) hold
// the canonical documents and are tried in fallback order, while a
// BlobStore (S3, filesystem, memory) stages uploaded images until the
// next save commits them permanently. Implementations live under
// subpackages repo/ and storage/.
package inkwell
