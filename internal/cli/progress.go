package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/cperrin88/beatsync/pkg/download"
	"github.com/cperrin88/beatsync/pkg/orchestrator"
)

// syncProgress renders download events as a byte-counting progress bar and
// keeps the totals for the summary.
type syncProgress struct {
	bar *progressbar.ProgressBar

	mu       sync.Mutex
	done     map[string]int64 // job ID -> bytes seen
	total    int64
	finished int
}

func newSyncProgress(out io.Writer, interactive bool) *syncProgress {
	p := &syncProgress{done: make(map[string]int64)}
	if interactive {
		p.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Downloading"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return p
}

func (p *syncProgress) handle(e download.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case download.EventProgressChanged:
		delta := e.Progress.Done - p.done[e.JobID]
		if delta <= 0 {
			return
		}
		p.done[e.JobID] = e.Progress.Done
		p.total += delta
		if p.bar != nil {
			_ = p.bar.Add64(delta)
		}
	case download.EventJobFinished:
		p.finished++
		if p.bar != nil {
			p.bar.Describe(fmt.Sprintf("Downloading (%d done)", p.finished))
		}
	}
}

func (p *syncProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func (p *syncProgress) bytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func printSummary(out io.Writer, res *orchestrator.SyncResult, downloaded int64, dryRun bool) {
	title := "Sync finished"
	if dryRun {
		title += " (dry run, nothing was written)"
	}
	_, _ = fmt.Fprintln(out, color.CyanString(title))

	for _, f := range res.Feeds {
		if f == nil {
			continue
		}
		switch {
		case f.Err != nil && !f.Canceled:
			_, _ = fmt.Fprintf(out, "  %s: %s %v\n", f.Feed, color.RedString("failed"), f.Err)
			continue
		case f.Canceled:
			_, _ = fmt.Fprintf(out, "  %s: %s\n", f.Feed, color.YellowString("canceled"))
		}
		_, _ = fmt.Fprintf(out, "  %s: %s downloaded, %d existing, %d skipped, %s, %s\n",
			f.Feed,
			color.GreenString("%d", f.Count(orchestrator.SongDownloaded)),
			f.Count(orchestrator.SongExists),
			f.Count(orchestrator.SongSkipped)+f.Count(orchestrator.SongNotWanted),
			color.YellowString("%d not found", f.Count(orchestrator.SongNotFound)),
			color.RedString("%d failed", f.Count(orchestrator.SongFailed)),
		)
		for _, s := range f.Songs {
			if s != nil && s.Status == orchestrator.SongFailed {
				_, _ = fmt.Fprintf(out, "    %s %s: %v\n", color.RedString("x"), s.Song, s.Err)
			}
		}
	}

	_, _ = fmt.Fprintf(out, "%d beatmaps, %s transferred\n",
		res.Count(orchestrator.SongDownloaded), humanize.Bytes(uint64(downloaded)))
	if res.Err != nil {
		_, _ = fmt.Fprintf(out, "%s %v\n", color.RedString("error:"), res.Err)
	}
}
