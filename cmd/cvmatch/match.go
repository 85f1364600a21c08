package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/domain/weights"
	chiTransport "github.com/kailas-cloud/cvmatch/internal/transport/chi"
	matchuc "github.com/kailas-cloud/cvmatch/internal/usecase/match"
)

var (
	matchJD      string
	matchCVs     []string
	matchOut     string
	matchTopAlt  int
	matchWorkers int
	matchWeights struct {
		skills, responsibilities, jobTitle, experience float64
	}
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank CV vector sets against a JD vector set",
	Long: `Score precomputed CV embeddings against a job description offline.
Input files use the same JSON format as the jd and candidates of POST /match/vectors.
No database or embedding provider is needed.`,
	Example: "  cvmatch match --jd jd.json --cv a.json --cv b.json --skills 2 --experience 1 --out result.json",
	RunE:    runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchJD, "jd", "", "JD vector set JSON file (required)")
	f.StringArrayVar(&matchCVs, "cv", nil, "CV vector set JSON file (repeatable)")
	f.Float64Var(&matchWeights.skills, "skills", 0, "Skills weight")
	f.Float64Var(&matchWeights.responsibilities, "responsibilities", 0, "Responsibilities weight")
	f.Float64Var(&matchWeights.jobTitle, "job-title", 0, "Job title weight")
	f.Float64Var(&matchWeights.experience, "experience", 0, "Experience weight")
	f.IntVar(&matchTopAlt, "top-alternatives", 0, "Alternatives reported per requirement (default 3)")
	f.IntVar(&matchWorkers, "workers", 0, "Candidates scored concurrently (default GOMAXPROCS)")
	f.StringVarP(&matchOut, "out", "o", "", "Write the result to this file instead of stdout")
	_ = matchCmd.MarkFlagRequired("jd")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger("warn")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	jd, err := readVectorSet(matchJD)
	if err != nil {
		return err
	}
	candidates := make([]vectorset.VectorSet, 0, len(matchCVs))
	for _, path := range matchCVs {
		cv, err := readVectorSet(path)
		if err != nil {
			return err
		}
		candidates = append(candidates, cv)
	}

	flags := cmd.Flags()
	var raw weights.Raw
	if flags.Changed("skills") {
		raw.Skills = &matchWeights.skills
	}
	if flags.Changed("responsibilities") {
		raw.Responsibilities = &matchWeights.responsibilities
	}
	if flags.Changed("job-title") {
		raw.JobTitle = &matchWeights.jobTitle
	}
	if flags.Changed("experience") {
		raw.Experience = &matchWeights.experience
	}
	var topAlt *int
	if flags.Changed("top-alternatives") {
		topAlt = &matchTopAlt
	}

	svc := matchuc.New(nil, logger).WithWorkers(matchWorkers)
	res, err := svc.Match(cmd.Context(), jd, candidates, raw, topAlt)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if matchOut != "" {
		f, err := os.Create(filepath.Clean(matchOut))
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chiTransport.NewMatchResponse(&res)); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func readVectorSet(path string) (vectorset.VectorSet, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return vectorset.VectorSet{}, fmt.Errorf("read %s: %w", path, err)
	}
	var dto chiTransport.VectorSetDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return vectorset.VectorSet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if dto.DocumentID == "" {
		dto.DocumentID = documentIDFromPath(path)
	}
	return dto.VectorSet(), nil
}

// documentIDFromPath derives an id from the file name, e.g. "cvs/jane_doe.json" -> "jane_doe".
func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
