package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"sinspect/internal/models"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
)

// Job is one region offered to the batch export.
type Job struct {
	Group     *models.Group
	Region    *models.Region
	Selection *selection.State
}

// BatchReport aggregates the per-region results of ExportAll.
type BatchReport struct {
	Results []Result

	// Failed counts regions exported with errors or not written at all
	Failed int

	// Notice is the consolidated failure message, empty when every region succeeded
	Notice string
}

// OK reports whether every region was exported without errors.
func (r BatchReport) OK() bool { return r.Failed == 0 }

// ExportAll writes every job whose counts flag is on to <outDir>/<group>/.
// A failing region never stops the others; failures are summed up in the
// report's Notice once every region has been attempted.
//
// A region whose file name collides with an earlier region of the same group
// is reported as failed and not written.
//
// Jobs are read-only during the export. Callers running with Workers > 1 must
// hold off mutations of the selections and the normalisation reference until
// ExportAll returns.
func ExportAll(jobs []Job, ctx normalization.Context, opts Options, outDir string) BatchReport {
	var todo []Job
	for _, j := range jobs {
		if j.Selection != nil && j.Selection.CountsEnabled() {
			todo = append(todo, j)
		}
	}

	results := make([]Result, len(todo))
	dirs := make([]string, len(todo))
	owners := make(map[string]string, len(todo))
	for i, j := range todo {
		dir, err := groupDir(outDir, j.Group.Name)
		if err != nil {
			results[i] = Result{Group: j.Group.Name, Region: j.Region.Name, Message: err.Error()}
			continue
		}
		key := filepath.Join(dir, fileName(j.Region.Name))
		if prev, ok := owners[key]; ok {
			results[i] = Result{
				Group:   j.Group.Name,
				Region:  j.Region.Name,
				Message: fmt.Sprintf("region %q would overwrite the file of region %q in group %q", j.Region.Name, prev, j.Group.Name),
			}
			continue
		}
		owners[key] = j.Region.Name
		dirs[i] = dir
	}

	run := func(i int) {
		if dirs[i] == "" {
			return
		}
		j := todo[i]
		res := ExportRegion(j.Region, j.Selection, ctx, opts, dirs[i])
		res.Group = j.Group.Name
		results[i] = res
	}

	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range todo {
			i := i
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range todo {
			run(i)
		}
	}

	report := BatchReport{Results: results}
	var last string
	for _, res := range results {
		if !res.OK {
			report.Failed++
			last = res.Message
		}
	}
	switch {
	case report.Failed == 1:
		report.Notice = last
	case report.Failed > 1:
		report.Notice = fmt.Sprintf("%d of %d regions exported with errors; last error: %s", report.Failed, len(results), last)
	}
	return report
}

// groupDir returns the export directory of a group below outDir. Separators
// in the group name are replaced and the result must stay inside outDir.
func groupDir(outDir, group string) (string, error) {
	name := separators.Replace(group)
	if name == "" || name == "." || name == ".." {
		name = strings.Repeat("_", len(name)+1)
	}
	dir := filepath.Join(outDir, name)
	rel, err := filepath.Rel(filepath.Clean(outDir), dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == "." {
		return "", fmt.Errorf("group name %q does not give a directory inside %s", group, outDir)
	}
	return dir, nil
}
