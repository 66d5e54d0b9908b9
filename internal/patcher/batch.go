package patcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sokinpui/chatpatch/internal/fs"
	"github.com/sokinpui/chatpatch/model"
)

// Logger receives progress and warnings from PatchAll.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any) {}
func (nopLogger) Warnf(string, ...any) {}

// Options configure PatchAll.
type Options struct {
	// Workers limits how many files are patched at once. Values below 1
	// mean one worker per file.
	Workers int
	// Verify logs a warning for every hunk that does not line up with the
	// original. Output is unaffected.
	Verify bool
	Logger Logger
}

// Result is the outcome of PatchAll.
type Result struct {
	// Files holds one entry per patched file, in order of first appearance.
	Files []model.PatchedFile
	// Missing lists filenames with no original in the store.
	Missing []string
}

type fileJob struct {
	path    string
	patches []string
}

// groupByFile collects patches per filename, keeping first-appearance order
// of files and appearance order of patches within a file.
func groupByFile(records []model.DiffRecord) []fileJob {
	index := make(map[string]int)
	var jobs []fileJob
	for _, r := range records {
		i, ok := index[r.Filename]
		if !ok {
			i = len(jobs)
			index[r.Filename] = i
			jobs = append(jobs, fileJob{path: r.Filename})
		}
		jobs[i].patches = append(jobs[i].patches, r.Patch)
	}
	return jobs
}

// PatchAll applies every record to its original from store. Records for the
// same file are folded in order, each applied to the previous result.
// Distinct files are patched concurrently. A file missing from store is
// logged and reported in Result.Missing; it does not stop the others.
func PatchAll(ctx context.Context, records []model.DiffRecord, store fs.Store, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}

	jobs := groupByFile(records)
	patched := make([]*model.PatchedFile, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			break
		}
		content, ok := store.Lookup(job.path)
		if !ok {
			log.Warnf("Original file not found for '%s'. Skipping.", job.path)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for n, p := range job.patches {
				if opts.Verify {
					for _, issue := range Verify(content, p) {
						log.Warnf("%s (diff %d): %s", job.path, n+1, issue)
					}
				}
				content = Apply(content, p)
			}
			patched[i] = &model.PatchedFile{
				Path:    job.path,
				Content: content,
				Records: len(job.patches),
			}
			log.Infof("Patched %s (%d diff block(s))", job.path, len(job.patches))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	for i, job := range jobs {
		if patched[i] == nil {
			res.Missing = append(res.Missing, job.path)
			continue
		}
		res.Files = append(res.Files, *patched[i])
	}
	return res, nil
}
