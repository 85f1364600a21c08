package document

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/cvmatch/internal/db"
	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
)

// store is the consumer interface for documents (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Repo stores one JSON record per document under <prefix>doc:<id>.
// It implements usecase/document.Repository and usecase/match.VectorSetReader (via VectorSets).
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. prefix is the global storage key prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix + "doc:"}
}

// Save creates or replaces a record.
func (r *Repo) Save(ctx context.Context, rec *domdoc.Record) error {
	key := r.key(rec.Document.ID())
	data, err := json.Marshal(buildRecordDTO(rec))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns a record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Record, error) {
	key := r.key(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Record{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return domdoc.Record{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decode(id, raw)
}

// GetMany returns the records that exist, keyed by ID.
// Records that exist but cannot be decoded are reported per ID in broken
// and do not fail the call. Missing IDs appear in neither map.
func (r *Repo) GetMany(
	ctx context.Context, ids []string,
) (found map[string]domdoc.Record, broken map[string]error, err error) {
	found = make(map[string]domdoc.Record, len(ids))
	broken = make(map[string]error)
	if len(ids) == 0 {
		return found, broken, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	raws, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("mget %d documents: %w", len(keys), err)
	}

	for i, raw := range raws {
		if raw == nil || i >= len(ids) {
			continue
		}
		rec, err := decode(ids[i], raw)
		if err != nil {
			broken[ids[i]] = fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
			continue
		}
		found[ids[i]] = rec
	}
	return found, broken, nil
}

// List returns all records, optionally filtered by kind, newest first.
func (r *Repo) List(ctx context.Context, kind domain.Kind) ([]domdoc.Record, error) {
	keys, err := r.store.ScanPrefix(ctx, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	raws, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget %d documents: %w", len(keys), err)
	}

	recs := make([]domdoc.Record, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue // deleted between SCAN and MGET
		}
		rec, err := decode(keys[i][len(r.prefix):], raw)
		if err != nil {
			return nil, err
		}
		if kind != "" && rec.Document.Kind() != kind {
			continue
		}
		recs = append(recs, rec)
	}

	slices.SortFunc(recs, func(a, b domdoc.Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID(), b.Document.ID())
	})
	return recs, nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// VectorSets exposes only the embeddings, for the match engine.
func (r *Repo) VectorSets() *VectorSetReader {
	return &VectorSetReader{repo: r}
}

// VectorSetReader implements usecase/match.VectorSetReader.
type VectorSetReader struct {
	repo *Repo
}

// Get returns the vector set of one document.
func (v *VectorSetReader) Get(ctx context.Context, id string) (vectorset.VectorSet, error) {
	rec, err := v.repo.Get(ctx, id)
	if err != nil {
		return vectorset.VectorSet{}, err
	}
	return rec.Vectors, nil
}

// GetMany returns the vector sets that exist, keyed by ID, plus per-ID decode failures.
func (v *VectorSetReader) GetMany(
	ctx context.Context, ids []string,
) (map[string]vectorset.VectorSet, map[string]error, error) {
	recs, broken, err := v.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]vectorset.VectorSet, len(recs))
	for id, rec := range recs {
		out[id] = rec.Vectors
	}
	return out, broken, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}

func decode(id string, raw []byte) (domdoc.Record, error) {
	var dto recordDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domdoc.Record{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	rec, err := parseRecordDTO(&dto)
	if err != nil {
		return domdoc.Record{}, fmt.Errorf("parse document %s: %w", id, err)
	}
	return rec, nil
}
