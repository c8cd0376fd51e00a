package presets

import (
	"context"
	"errors"
	"testing"

	"github.com/randoscope/randoscope/internal/types"
)

type fakeCommuneSource struct {
	searchCalls int
	deptCalls   int
	err         error
}

func (f *fakeCommuneSource) SearchCommunes(ctx context.Context, query string) ([]types.Commune, error) {
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []types.Commune{{Name: "Cauterets", Code: "65138", DeptCode: "65"}}, nil
}

func (f *fakeCommuneSource) CommunesByDepartement(ctx context.Context, deptCode string) ([]types.Commune, error) {
	f.deptCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []types.Commune{
		{Name: "Cauterets", Code: "65138", DeptCode: deptCode},
		{Name: "Luz-Saint-Sauveur", Code: "65295", DeptCode: deptCode},
	}, nil
}

func newTestIndex(t *testing.T, source CommuneSource) *CommuneIndex {
	t.Helper()
	index, err := NewCommuneIndex(source)
	if err != nil {
		t.Fatalf("NewCommuneIndex: %v", err)
	}
	return index
}

func TestSearchMemoized(t *testing.T) {
	source := &fakeCommuneSource{}
	index := newTestIndex(t, source)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		communes, err := index.Search(ctx, "Cauterets")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(communes) != 1 || communes[0].Code != "65138" {
			t.Fatalf("communes = %+v", communes)
		}
	}
	if source.searchCalls != 1 {
		t.Errorf("searchCalls = %d, want 1 (memoized)", source.searchCalls)
	}

	// Case-insensitive memo key.
	if _, err := index.Search(ctx, "cauterets"); err != nil {
		t.Fatalf("Search lowercase: %v", err)
	}
	if source.searchCalls != 1 {
		t.Errorf("searchCalls = %d, case variant should hit the memo", source.searchCalls)
	}
}

func TestSearchShortQuery(t *testing.T) {
	source := &fakeCommuneSource{}
	index := newTestIndex(t, source)

	communes, err := index.Search(context.Background(), "ca")
	if err != nil || communes != nil {
		t.Errorf("short query: %v, %v", communes, err)
	}
	if source.searchCalls != 0 {
		t.Errorf("short query must not reach the source")
	}
}

func TestSearchErrorNotMemoized(t *testing.T) {
	source := &fakeCommuneSource{err: errors.New("geoapi down")}
	index := newTestIndex(t, source)
	ctx := context.Background()

	if _, err := index.Search(ctx, "Cauterets"); err == nil {
		t.Fatal("expected error")
	}

	// Once the source recovers, the next call fetches.
	source.err = nil
	communes, err := index.Search(ctx, "Cauterets")
	if err != nil || len(communes) != 1 {
		t.Errorf("after recovery: %+v, %v", communes, err)
	}
	if source.searchCalls != 2 {
		t.Errorf("searchCalls = %d, failures must not be cached", source.searchCalls)
	}
}

func TestByDepartementMemoized(t *testing.T) {
	source := &fakeCommuneSource{}
	index := newTestIndex(t, source)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		communes, err := index.ByDepartement(ctx, "65")
		if err != nil {
			t.Fatalf("ByDepartement: %v", err)
		}
		if len(communes) != 2 {
			t.Fatalf("communes = %+v", communes)
		}
	}
	if source.deptCalls != 1 {
		t.Errorf("deptCalls = %d, want 1", source.deptCalls)
	}

	if communes, err := index.ByDepartement(ctx, ""); err != nil || communes != nil {
		t.Errorf("empty dept code: %v, %v", communes, err)
	}
}
