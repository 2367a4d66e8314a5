package docsystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"revisor/internal/diff"
	"revisor/internal/domain"
	models "revisor/internal/domain/models/docsystem"
	docsysSvc "revisor/internal/domain/services/docsystem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocRepo is an in-memory DocumentRepository for service tests
type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func newFakeDocRepo(ids ...string) *fakeDocRepo {
	r := &fakeDocRepo{docs: make(map[string]*models.Document)}
	for _, id := range ids {
		r.docs[id] = &models.Document{ID: id}
	}
	return r
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = fmt.Sprintf("doc-%d", len(r.docs)+1)
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (r *fakeDocRepo) ListByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	return nil, nil
}

func (r *fakeDocRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[id]
	return ok, nil
}

// fakeVersionRepo is an in-memory VersionRepository enforcing the
// (document_id, version) uniqueness constraint. conflictsLeft injects rival
// writers: while positive, each Create loses the race to a competing row.
type fakeVersionRepo struct {
	mu            sync.Mutex
	rows          map[string]map[int]*models.DocumentVersion
	conflictsLeft int
	createCalls   int
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{rows: make(map[string]map[int]*models.DocumentVersion)}
}

func (r *fakeVersionRepo) insertLocked(v *models.DocumentVersion) error {
	byDoc, ok := r.rows[v.DocumentID]
	if !ok {
		byDoc = make(map[int]*models.DocumentVersion)
		r.rows[v.DocumentID] = byDoc
	}
	if _, taken := byDoc[v.Version]; taken {
		return fmt.Errorf("document %s version %d: %w", v.DocumentID, v.Version, domain.ErrVersionConflict)
	}
	v.ID = fmt.Sprintf("ver-%s-%d", v.DocumentID, v.Version)
	byDoc[v.Version] = v
	return nil
}

func (r *fakeVersionRepo) Create(ctx context.Context, v *models.DocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++

	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		// A rival writer wins the contested number with its own content
		rival := *v
		rival.Content = fmt.Sprintf("rival content for v%d\n", v.Version)
		rival.DiffFromPrevious = nil
		_ = r.insertLocked(&rival)
		return fmt.Errorf("document %s version %d: %w", v.DocumentID, v.Version, domain.ErrVersionConflict)
	}

	return r.insertLocked(v)
}

func (r *fakeVersionRepo) MaxVersion(ctx context.Context, documentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for version := range r.rows[documentID] {
		if version > max {
			max = version
		}
	}
	return max, nil
}

func (r *fakeVersionRepo) GetByVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.rows[documentID][version]
	if !ok {
		return nil, fmt.Errorf("document %s version %d: %w", documentID, version, domain.ErrNotFound)
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVersionRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	versions, err := r.ListWithContent(ctx, documentID)
	if err != nil {
		return nil, err
	}
	for i := range versions {
		versions[i].Content = ""
		versions[i].DiffFromPrevious = nil
	}
	return versions, nil
}

func (r *fakeVersionRepo) ListWithContent(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := make([]models.DocumentVersion, 0, len(r.rows[documentID]))
	for _, v := range r.rows[documentID] {
		versions = append(versions, *v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}

func newTestVersionStore(docRepo *fakeDocRepo, versionRepo *fakeVersionRepo) docsysSvc.VersionStore {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewVersionStore(docRepo, versionRepo, diff.NewEngine(), logger)
}

func createVersion(t *testing.T, store docsysSvc.VersionStore, docID, content string) *models.DocumentVersion {
	t.Helper()
	v, err := store.CreateVersion(context.Background(), &docsysSvc.CreateVersionRequest{
		DocumentID: docID,
		AuthorID:   "author-1",
		Content:    content,
	})
	require.NoError(t, err)
	return v
}

func TestCreateVersionSequence(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	v1 := createVersion(t, store, "doc-a", "first\n")
	v2 := createVersion(t, store, "doc-a", "first\nsecond\n")
	v3 := createVersion(t, store, "doc-a", "first\nsecond\nthird\n")

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, 3, v3.Version)

	// Version 1 stores full content only; later versions carry a diff
	assert.Nil(t, v1.DiffFromPrevious)
	require.NotNil(t, v2.DiffFromPrevious)
	require.NotNil(t, v3.DiffFromPrevious)

	// The stored diff reconstructs the next content from the previous one
	engine := diff.NewEngine()
	patch, err := diff.ParsePatch(*v2.DiffFromPrevious)
	require.NoError(t, err)
	reconstructed, err := engine.Apply(v1.Content, patch)
	require.NoError(t, err)
	assert.Equal(t, v2.Content, reconstructed)
}

func TestCreateVersionValidation(t *testing.T) {
	store := newTestVersionStore(newFakeDocRepo("doc-a"), newFakeVersionRepo())

	tests := []struct {
		name string
		req  *docsysSvc.CreateVersionRequest
	}{
		{
			name: "empty content rejected",
			req:  &docsysSvc.CreateVersionRequest{DocumentID: "doc-a", AuthorID: "u1", Content: ""},
		},
		{
			name: "missing author",
			req:  &docsysSvc.CreateVersionRequest{DocumentID: "doc-a", Content: "x\n"},
		},
		{
			name: "missing document id",
			req:  &docsysSvc.CreateVersionRequest{AuthorID: "u1", Content: "x\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateVersion(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestCreateVersionUnknownDocument(t *testing.T) {
	store := newTestVersionStore(newFakeDocRepo(), newFakeVersionRepo())

	_, err := store.CreateVersion(context.Background(), &docsysSvc.CreateVersionRequest{
		DocumentID: "nope",
		AuthorID:   "u1",
		Content:    "x\n",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateVersionRetriesOnConflict(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	createVersion(t, store, "doc-a", "base\n")

	// Two rival writers win before our write lands
	versionRepo.conflictsLeft = 2

	v, err := store.CreateVersion(context.Background(), &docsysSvc.CreateVersionRequest{
		DocumentID: "doc-a",
		AuthorID:   "author-2",
		Content:    "base\nmine\n",
	})
	require.NoError(t, err)

	// v2 and v3 went to the rivals; we got v4 after re-reading
	assert.Equal(t, 4, v.Version)
	assert.Equal(t, 3, versionRepo.createCalls-1) // 3 attempts after the base version
}

func TestCreateVersionRetryExhaustion(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	versionRepo.conflictsLeft = 1000 // never stops losing
	store := newTestVersionStore(docRepo, versionRepo)

	_, err := store.CreateVersion(context.Background(), &docsysSvc.CreateVersionRequest{
		DocumentID: "doc-a",
		AuthorID:   "u1",
		Content:    "x\n",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVersionConflict))

	var conflictErr *domain.VersionConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "doc-a", conflictErr.DocumentID)
	assert.Greater(t, conflictErr.Attempts, 1)
}

// Concurrent writers must produce a gap-free 1..N sequence.
func TestCreateVersionConcurrent(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CreateVersion(context.Background(), &docsysSvc.CreateVersionRequest{
				DocumentID: "doc-a",
				AuthorID:   fmt.Sprintf("author-%d", i),
				Content:    fmt.Sprintf("content from writer %d\n", i),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	versions, err := versionRepo.ListWithContent(context.Background(), "doc-a")
	require.NoError(t, err)
	require.Len(t, versions, writers)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}
}

func TestGetVersion(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	createVersion(t, store, "doc-a", "content\n")

	v, err := store.GetVersion(context.Background(), "doc-a", 1)
	require.NoError(t, err)
	assert.Equal(t, "content\n", v.Content)

	_, err = store.GetVersion(context.Background(), "doc-a", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = store.GetVersion(context.Background(), "doc-a", 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyChainIntact(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	createVersion(t, store, "doc-a", "one\n")
	createVersion(t, store, "doc-a", "one\ntwo\n")
	createVersion(t, store, "doc-a", "one\ntwo\nthree\n")

	report, err := store.VerifyChain(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.True(t, report.Intact)
	assert.Equal(t, 3, report.Versions)
	assert.Zero(t, report.BrokenVersion)
}

func TestVerifyChainDetectsDrift(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	createVersion(t, store, "doc-a", "one\n")
	createVersion(t, store, "doc-a", "one\ntwo\n")

	// Corrupt v1's content behind the store's back; v2's diff no longer
	// applies against it
	versionRepo.rows["doc-a"][1].Content = "tampered\n"

	report, err := store.VerifyChain(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.False(t, report.Intact)
	assert.Equal(t, 2, report.BrokenVersion)
	assert.NotEmpty(t, report.Detail)
}

func TestVerifyChainDetectsGap(t *testing.T) {
	docRepo := newFakeDocRepo("doc-a")
	versionRepo := newFakeVersionRepo()
	store := newTestVersionStore(docRepo, versionRepo)

	createVersion(t, store, "doc-a", "one\n")
	createVersion(t, store, "doc-a", "one\ntwo\n")

	// Simulate a hole in the history
	delete(versionRepo.rows["doc-a"], 1)

	report, err := store.VerifyChain(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.False(t, report.Intact)
	assert.Equal(t, 2, report.BrokenVersion)
}

func TestVerifyChainEmptyHistory(t *testing.T) {
	store := newTestVersionStore(newFakeDocRepo("doc-a"), newFakeVersionRepo())

	report, err := store.VerifyChain(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.True(t, report.Intact)
	assert.Zero(t, report.Versions)
}

func TestListVersionsUnknownDocument(t *testing.T) {
	store := newTestVersionStore(newFakeDocRepo(), newFakeVersionRepo())

	_, err := store.ListVersions(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
