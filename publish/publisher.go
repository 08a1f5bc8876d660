// Package publish drives the find-or-create-then-update workflow against
// the wiki.  One parent index page per configured title, one stable child
// page holding the latest run, attachments on the child.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/exp/maps"

	"github.com/devopsuser8413/reportpipe/confluence"
	"github.com/devopsuser8413/reportpipe/report"
)

// Publisher pushes one run's artifacts to the wiki.  Steps that fail are
// logged and skipped; independent later steps still run, so an outage
// halfway leaves a partially updated but never corrupted page tree.
type Publisher struct {
	API   *confluence.API
	Space string
	Title string

	ArtifactDir  string
	ShowProgress bool

	Logger *log.Logger

	stepErrs map[string]error
}

// Run executes the whole publish sequence: resolve parent, resolve or
// create the latest-run child, update its body, upsert every artifact as an
// attachment, then rebuild and update the parent index.  The returned error
// joins every failed step; nil means a completely clean run.
func (p *Publisher) Run(ctx context.Context) error {
	p.stepErrs = map[string]error{}

	if user, err := p.API.CurrentUser(ctx); err != nil {
		p.Logger.Printf("Heads up, couldn't verify wiki credentials: %v\n", err)
	} else {
		p.Logger.Printf("Authenticated to wiki as %s.\n", user.DisplayName)
	}

	sum := report.Scan(p.ArtifactDir, p.Logger)
	files := report.Attachments(p.ArtifactDir)
	version := report.Version(p.ArtifactDir)

	p.Logger.Printf("Publishing version %s (%s), %d artifacts...\n", version, sum.Status(), len(files))

	parent := p.resolveParent(ctx)

	var child *confluence.Content
	if parent != nil {
		child = p.resolveChild(ctx, parent)
	} else {
		p.skipStep("resolve child", "no parent page")
	}

	if child != nil {
		p.updateChildBody(ctx, child, version, sum, files)
		p.uploadAttachments(ctx, child, files)
	} else {
		p.skipStep("update child body", "no child page")
		p.skipStep("upload attachments", "no child page")
	}

	if parent != nil {
		p.rebuildParentIndex(ctx, parent, version)
	} else {
		p.skipStep("rebuild parent index", "no parent page")
	}

	return p.summarise()
}

// resolveParent finds the index page, creating it when this is the first
// publish into the space.  A create that loses the race to a concurrent run
// falls back to finding the winner's page.
func (p *Publisher) resolveParent(ctx context.Context) *confluence.Content {
	parent, err := p.API.FindPage(ctx, p.Space, p.Title)
	if errors.Is(err, confluence.ErrPageNotFound) {
		p.Logger.Printf("Parent page %q not found, creating it...\n", p.Title)
		parent, err = p.API.CreatePage(ctx, p.Space, p.Title, parentBody("N/A", nil, time.Now()), "")
		if errors.Is(err, confluence.ErrPageExists) {
			parent, err = p.API.FindPage(ctx, p.Space, p.Title)
		}
	}

	p.step("resolve parent", err)
	if err != nil {
		return nil
	}
	return parent
}

func (p *Publisher) resolveChild(ctx context.Context, parent *confluence.Content) *confluence.Content {
	title := ChildTitle(p.Title)

	child, err := p.API.FindPage(ctx, p.Space, title)
	if errors.Is(err, confluence.ErrPageNotFound) {
		p.Logger.Printf("Report page %q not found, creating it...\n", title)
		child, err = p.API.CreatePage(ctx, p.Space, title, "<p>First publish under way.</p>", parent.ID)
		if errors.Is(err, confluence.ErrPageExists) {
			child, err = p.API.FindPage(ctx, p.Space, title)
		}
	}

	p.step("resolve child", err)
	if err != nil {
		return nil
	}
	return child
}

func (p *Publisher) updateChildBody(ctx context.Context, child *confluence.Content, version string, sum report.Summary, files []string) {
	body := childBody(version, sum, files, time.Now())

	updated, err := p.API.UpdatePage(ctx, child.ID, child.Title, body)
	if err == nil && updated.Version != nil {
		p.Logger.Printf("Updated %q (now v%d).\n", child.Title, updated.Version.Number)
	}

	p.step("update child body", err)
}

func (p *Publisher) uploadAttachments(ctx context.Context, child *confluence.Content, files []string) {
	const step = "upload attachments"

	if len(files) == 0 {
		p.Logger.Println("No artifacts to upload.")
		p.step(step, nil)
		return
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if p.ShowProgress {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("uploading:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d/%d) "),
				decor.NewPercentage("%d"),
			),
		)
	}

	var errs []error
	for _, file := range files {
		name := filepath.Base(file)

		data, err := os.ReadFile(file)
		if err != nil {
			// An artifact that vanished between listing and read shouldn't
			// sink the others.
			p.Logger.Printf("Skipping %s: %v\n", name, err)
			if bar != nil {
				bar.Increment()
			}
			continue
		}

		att, wasNew, err := p.API.UpsertAttachment(ctx, child.ID, name, data)
		switch {
		case err != nil:
			p.Logger.Printf("Failed to upload %s: %v\n", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		case wasNew:
			p.Logger.Printf("Uploaded %s.\n", name)
		case att.Version != nil:
			p.Logger.Printf("Replaced %s (now v%d).\n", name, att.Version.Number)
		default:
			p.Logger.Printf("Replaced %s.\n", name)
		}

		if bar != nil {
			bar.Increment()
		}
	}

	if progress != nil {
		progress.Wait()
	}

	p.step(step, errors.Join(errs...))
}

func (p *Publisher) rebuildParentIndex(ctx context.Context, parent *confluence.Content, version string) {
	children, err := p.API.ChildPages(ctx, parent.ID)
	p.step("rebuild parent index", err)
	if err != nil {
		p.skipStep("update parent", "couldn't list child pages")
		return
	}

	updated, err := p.API.UpdatePage(ctx, parent.ID, p.Title, parentBody(version, children, time.Now()))
	if err == nil && updated.Version != nil {
		p.Logger.Printf("Updated index %q (now v%d).\n", p.Title, updated.Version.Number)
	}

	p.step("update parent", err)
}

func (p *Publisher) step(name string, err error) {
	p.stepErrs[name] = err
	if err != nil {
		p.Logger.Printf("Step %s failed: %v\n", name, err)
	}
}

func (p *Publisher) skipStep(name, why string) {
	p.Logger.Printf("Skipping step %s: %s.\n", name, why)
}

// summarise prints the per-step outcome in a stable order and joins the
// failures into the run's error.
func (p *Publisher) summarise() error {
	steps := maps.Keys(p.stepErrs)
	sort.Strings(steps)

	var errs []error
	for _, s := range steps {
		if err := p.stepErrs[s]; err != nil {
			p.Logger.Printf("  failed: %s: %v\n", s, err)
			errs = append(errs, fmt.Errorf("%s: %w", s, err))
		} else {
			p.Logger.Printf("  ok: %s\n", s)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("publish: %w", errors.Join(errs...))
	}
	return nil
}
