package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/metrics"
	documentrepo "github.com/kailas-cloud/cvmatch/internal/repository/document"
	"github.com/kailas-cloud/cvmatch/internal/schemas"
	documentuc "github.com/kailas-cloud/cvmatch/internal/usecase/document"
	"github.com/kailas-cloud/cvmatch/internal/usecase/vectorize"
)

var (
	ingestKind  string
	ingestGlobs []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed and store structured CV/JD documents",
	Long: `Validate structured documents against the document schema, embed them with the
configured vectorizer and store them. Files without an id use their file name.`,
	Example: `  cvmatch ingest --kind cv --glob 'data/cvs/**/*.json'`,
	RunE:    runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestKind, "kind", "", "Document kind when the file has none: cv or jd")
	ingestCmd.Flags().StringArrayVar(&ingestGlobs, "glob", nil, "File pattern, ** supported (repeatable)")
	_ = ingestCmd.MarkFlagRequired("glob")
	rootCmd.AddCommand(ingestCmd)
}

// documentFile is the on-disk structured document format.
type documentFile struct {
	ID               string   `json:"id,omitempty"`
	Kind             string   `json:"kind,omitempty"`
	Name             string   `json:"name,omitempty"`
	Filename         string   `json:"filename,omitempty"`
	JobTitle         string   `json:"job_title,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	ExperienceYears  *float64 `json:"experience_years,omitempty"`
	ExperienceText   string   `json:"experience_text,omitempty"`
}

func runIngest(cmd *cobra.Command, _ []string) error {
	var defaultKind domain.Kind
	if ingestKind != "" {
		k, err := domain.ParseKind(ingestKind)
		if err != nil {
			return err
		}
		defaultKind = k
	}

	files, err := expandGlobs(ingestGlobs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(ingestGlobs, ", "))
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.RegisterEmbeddingMetrics()
	chain, ok := buildEmbedder(&cfg, store, logger)
	if !ok {
		return errors.New("no vectorizer configured: set embedding.vectorizers (and embedding.default when several)")
	}
	vec := vectorize.New(chain.embedder, logger).
		WithSlots(cfg.Documents.MaxSkills, cfg.Documents.MaxResponsibilities)
	docs := documentuc.New(documentrepo.New(store, cfg.Storage.KeyPrefix), vec, chain.model, logger)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmd.ErrOrStderr()) }),
	)

	var failed, tokens, dropped int
	for _, path := range files {
		res, err := ingestFile(cmd, docs, path, defaultKind)
		_ = bar.Add(1)
		if err != nil {
			failed++
			logger.Error("Ingest failed", zap.String("file", path), zap.Error(err))
			continue
		}
		tokens += res.Stats.TotalTokens
		dropped += res.Stats.SkillsDropped + res.Stats.ResponsibilitiesDropped
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d of %d documents (%d tokens, %d items over slot budget)\n",
		len(files)-failed, len(files), tokens, dropped)
	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}

func ingestFile(
	cmd *cobra.Command, docs *documentuc.Service, path string, defaultKind domain.Kind,
) (documentuc.IngestResult, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return documentuc.IngestResult{}, fmt.Errorf("read: %w", err)
	}

	f, err := parseDocumentFile(data, defaultKind)
	if err != nil {
		return documentuc.IngestResult{}, err
	}

	if f.ID == "" {
		f.ID = documentIDFromPath(path)
	}
	if f.Filename == "" {
		f.Filename = filepath.Base(path)
	}

	res, err := docs.Ingest(cmd.Context(), domdoc.Params{
		ID:               f.ID,
		Kind:             domain.Kind(f.Kind),
		Name:             f.Name,
		Filename:         f.Filename,
		JobTitle:         f.JobTitle,
		Skills:           f.Skills,
		Responsibilities: f.Responsibilities,
		ExperienceYears:  f.ExperienceYears,
		ExperienceText:   f.ExperienceText,
	})
	if err != nil {
		return documentuc.IngestResult{}, fmt.Errorf("ingest: %w", err)
	}
	return res, nil
}

// parseDocumentFile validates raw file bytes against the document schema and decodes them.
// A missing kind is filled from defaultKind on the generic JSON object, so fields
// unknown to documentFile still reach schema validation.
func parseDocumentFile(data []byte, defaultKind domain.Kind) (documentFile, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return documentFile{}, fmt.Errorf("parse: %w", err)
	}
	if obj == nil {
		return documentFile{}, errors.New("parse: document is null")
	}

	var kind string
	kindIsString := true
	if raw, ok := obj["kind"]; ok {
		kindIsString = json.Unmarshal(raw, &kind) == nil
	}
	// A kind that is not a string is left for the schema to reject.
	if kindIsString && defaultKind != "" {
		if kind == "" {
			kind = string(defaultKind)
			obj["kind"], _ = json.Marshal(kind)
			var err error
			if data, err = json.Marshal(obj); err != nil {
				return documentFile{}, fmt.Errorf("encode: %w", err)
			}
		}
		if kind != string(defaultKind) {
			return documentFile{}, fmt.Errorf("file is %q, want %q: %w", kind, defaultKind, domain.ErrKindMismatch)
		}
	}
	if err := schemas.ValidateDocument(data); err != nil {
		return documentFile{}, err
	}

	var f documentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return documentFile{}, fmt.Errorf("parse: %w", err)
	}
	return f, nil
}

// expandGlobs resolves doublestar patterns into a sorted, de-duplicated file list.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}
