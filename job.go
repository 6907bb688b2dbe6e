package datasync

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rearcquest/datasync/prom"
)

// JobOptions holds the settings shared by every job's Main.
type JobOptions struct {
	LogPath     string `help:"Log file to write to. Empty means stderr."`
	Verbose     bool   `help:"Enable verbose logging."`
	Pushgateway string `help:"Prometheus Pushgateway URL to push run metrics to when the job ends. Empty disables metrics."`
}

// Job carries the logger and statter of one run, and knows how to flush
// them when the run ends.
type Job struct {
	Name  string
	Log   Logger
	Stats Statter

	start       time.Time
	pushgateway string
	prom        *prom.Statter
	logFile     io.Closer
}

// Start sets up logging and metrics for a run of the named job.
func (o JobOptions) Start(name string) (*Job, error) {
	j := &Job{
		Name:        name,
		Stats:       NopStatter{},
		start:       time.Now(),
		pushgateway: o.Pushgateway,
	}

	var out io.Writer = os.Stderr
	if o.LogPath != "" {
		f, err := os.OpenFile(o.LogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, errors.Wrap(err, "opening log file")
		}
		out = f
		j.logFile = f
	}
	j.Log = NewRunLogger(out, name, o.Verbose)

	if o.Pushgateway != "" {
		j.prom = prom.NewStatter("datasync")
		j.Stats = j.prom
	}
	return j, nil
}

// AddStatter makes the job report to s as well as its current Statter.
func (j *Job) AddStatter(s Statter) {
	if _, ok := j.Stats.(NopStatter); ok {
		j.Stats = s
		return
	}
	j.Stats = MultiStatter{j.Stats, s}
}

// Finish records the run duration, pushes metrics if a Pushgateway is
// configured, and closes the log file. Failures are logged, not returned,
// so they never change the outcome of the run.
func (j *Job) Finish() {
	j.Stats.Timing(j.Name+".run", time.Since(j.start), 1)
	j.Log.Printf("done in %v", time.Since(j.start))
	if j.prom != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.prom.Push(ctx, j.pushgateway, j.Name); err != nil {
			j.Log.Printf("%v", err)
		}
	}
	if j.logFile != nil {
		j.logFile.Close()
	}
}
