package document

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/cvmatch/internal/db"
	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	data    map[string][]byte
	mgetErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func testRecord(t *testing.T, id string, kind domain.Kind, created time.Time) *domdoc.Record {
	t.Helper()
	years := 4.0
	doc, err := domdoc.New(domdoc.Params{
		ID: id, Kind: kind, JobTitle: "Data Engineer",
		Skills: []string{"python", "sql"}, ExperienceYears: &years,
	})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	vs, err := vectorset.New(vectorset.Fields{
		DocumentID: id, Kind: kind,
		Skills: []vectorset.Item{
			{Label: "python", Vector: []float32{1, 0, 0}},
			{Label: "sql", Vector: []float32{0, 1, 0}},
		},
		Title:           []float32{0, 0, 1},
		ExperienceYears: &years,
	})
	if err != nil {
		t.Fatalf("new vector set: %v", err)
	}
	return &domdoc.Record{Document: doc, Vectors: vs, Model: "test-model", CreatedAt: created, UpdatedAt: created}
}
