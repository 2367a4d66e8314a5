// Package diff computes reversible, line-based diffs between document
// bodies. A patch carries a fingerprint of the content it was computed
// against so drift is detected before a stale patch is applied.
package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"revisor/internal/domain"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// patchHeaderPrefix starts the first line of an encoded patch. The rest of
// the line is the hex SHA-256 of the base content; everything after the
// newline is diffmatchpatch patch text.
const patchHeaderPrefix = "revisor-patch v1 base:"

// Patch transforms one version's content into the next. BaseFingerprint is
// the SHA-256 of the content the patch was computed from; Apply refuses to
// run against anything else.
type Patch struct {
	BaseFingerprint string
	Body            string
}

// Engine computes and applies patches. Both operations are pure functions.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine
func NewEngine() *Engine {
	return &Engine{dmp: diffmatchpatch.New()}
}

// Fingerprint returns the hex SHA-256 of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Compute produces a patch that transforms previous into next. The diff is
// an LCS over lines (documents are text; byte-level granularity is not
// needed), re-expanded to full line content before the patch is built.
func (e *Engine) Compute(previous, next string) *Patch {
	prevRunes, nextRunes, lines := e.dmp.DiffLinesToRunes(previous, next)
	diffs := e.dmp.DiffMainRunes(prevRunes, nextRunes, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lines)

	patches := e.dmp.PatchMake(previous, diffs)
	return &Patch{
		BaseFingerprint: Fingerprint(previous),
		Body:            e.dmp.PatchToText(patches),
	}
}

// Apply reconstructs the next content from previous and p. It fails with a
// PatchConflictError when previous does not match the patch's recorded base
// fingerprint, or when any hunk fails to apply.
func (e *Engine) Apply(previous string, p *Patch) (string, error) {
	if fp := Fingerprint(previous); fp != p.BaseFingerprint {
		return "", &domain.PatchConflictError{
			ExpectedFingerprint: p.BaseFingerprint,
			ActualFingerprint:   fp,
		}
	}

	patches, err := e.dmp.PatchFromText(p.Body)
	if err != nil {
		return "", fmt.Errorf("%w: malformed patch body: %v", domain.ErrPatchConflict, err)
	}

	result, applied := e.dmp.PatchApply(patches, previous)
	for i, ok := range applied {
		if !ok {
			return "", fmt.Errorf("%w: hunk %d did not apply", domain.ErrPatchConflict, i)
		}
	}

	return result, nil
}

// Encode serializes p to the single text artifact stored in
// document_versions.diff_from_previous.
func (p *Patch) Encode() string {
	return patchHeaderPrefix + p.BaseFingerprint + "\n" + p.Body
}

// ParsePatch reverses Encode.
func ParsePatch(s string) (*Patch, error) {
	header, body, found := strings.Cut(s, "\n")
	if !found || !strings.HasPrefix(header, patchHeaderPrefix) {
		return nil, fmt.Errorf("%w: missing patch header", domain.ErrValidation)
	}

	fp := strings.TrimPrefix(header, patchHeaderPrefix)
	if len(fp) != 64 {
		return nil, fmt.Errorf("%w: malformed base fingerprint", domain.ErrValidation)
	}

	return &Patch{BaseFingerprint: fp, Body: body}, nil
}
