package diff

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"revisor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeApplyRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		next     string
	}{
		{
			name:     "append section",
			previous: "# Title\n\nIntro paragraph.\n",
			next:     "# Title\n\nIntro paragraph.\n\n## Details\n\nMore text.\n",
		},
		{
			name:     "remove lines",
			previous: "line one\nline two\nline three\nline four\n",
			next:     "line one\nline four\n",
		},
		{
			name:     "rewrite middle",
			previous: "alpha\nbeta\ngamma\n",
			next:     "alpha\nBETA REVISED\ngamma\n",
		},
		{
			name:     "identical content",
			previous: "unchanged\n",
			next:     "unchanged\n",
		},
		{
			name:     "previous empty",
			previous: "",
			next:     "fresh content\nsecond line\n",
		},
		{
			name:     "next shrinks to one line",
			previous: "a\nb\nc\nd\ne\n",
			next:     "c\n",
		},
		{
			name:     "no trailing newline",
			previous: "first\nsecond",
			next:     "first\nsecond\nthird",
		},
		{
			name:     "unicode content",
			previous: "héllo wörld\nsecond line\n",
			next:     "héllo wörld\nsëcond line\n日本語\n",
		},
	}

	engine := NewEngine()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch := engine.Compute(tt.previous, tt.next)
			require.Equal(t, Fingerprint(tt.previous), patch.BaseFingerprint)

			got, err := engine.Apply(tt.previous, patch)
			require.NoError(t, err)
			assert.Equal(t, tt.next, got)
		})
	}
}

func TestRoundTripThroughEncoding(t *testing.T) {
	engine := NewEngine()

	previous := "# Doc\n\nbody line\n"
	next := "# Doc\n\nbody line changed\nextra\n"

	encoded := engine.Compute(previous, next).Encode()

	parsed, err := ParsePatch(encoded)
	require.NoError(t, err)

	got, err := engine.Apply(previous, parsed)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

// Randomized pairs: any two line-based documents must round-trip exactly.
func TestRoundTripRandomPairs(t *testing.T) {
	engine := NewEngine()
	rng := rand.New(rand.NewSource(42))

	randomDoc := func() string {
		var b strings.Builder
		lines := rng.Intn(40)
		for i := 0; i < lines; i++ {
			fmt.Fprintf(&b, "line %d of doc %d\n", rng.Intn(20), rng.Intn(5))
		}
		return b.String()
	}

	for i := 0; i < 50; i++ {
		previous := randomDoc()
		next := randomDoc()

		patch := engine.Compute(previous, next)
		got, err := engine.Apply(previous, patch)
		require.NoError(t, err, "pair %d", i)
		require.Equal(t, next, got, "pair %d", i)
	}
}

func TestApplyFingerprintMismatch(t *testing.T) {
	engine := NewEngine()

	patch := engine.Compute("original content\n", "changed content\n")

	_, err := engine.Apply("drifted content\n", patch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPatchConflict))

	var patchErr *domain.PatchConflictError
	require.ErrorAs(t, err, &patchErr)
	assert.Equal(t, patch.BaseFingerprint, patchErr.ExpectedFingerprint)
	assert.Equal(t, Fingerprint("drifted content\n"), patchErr.ActualFingerprint)
}

func TestApplyMalformedBody(t *testing.T) {
	engine := NewEngine()

	patch := &Patch{
		BaseFingerprint: Fingerprint("content\n"),
		Body:            "@@ not a real patch @@",
	}

	_, err := engine.Apply("content\n", patch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPatchConflict))
}

func TestParsePatch(t *testing.T) {
	valid := patchHeaderPrefix + strings.Repeat("a", 64) + "\npatch body"

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: valid, wantErr: false},
		{name: "missing header", input: "patch body only", wantErr: true},
		{name: "wrong prefix", input: "some-other-header\nbody", wantErr: true},
		{name: "short fingerprint", input: patchHeaderPrefix + "abc123\nbody", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := ParsePatch(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.Repeat("a", 64), patch.BaseFingerprint)
			assert.Equal(t, "patch body", patch.Body)
		})
	}
}

func TestFingerprintStable(t *testing.T) {
	// Fingerprints are stored inside persisted patches, so the function must
	// stay stable across releases.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Fingerprint(""))
	assert.Equal(t, Fingerprint("abc\n"), Fingerprint("abc\n"))
	assert.NotEqual(t, Fingerprint("abc\n"), Fingerprint("abd\n"))
}
