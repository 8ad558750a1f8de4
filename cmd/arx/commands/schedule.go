package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/arx/internal/compress"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/filter"
	"github.com/thoreinstein/arx/internal/logging"
	"github.com/thoreinstein/arx/internal/paths"
	"github.com/thoreinstein/arx/internal/scheduler"
	"github.com/thoreinstein/arx/pkg/fileutil"
)

var scheduleTaskFile string

func init() {
	scheduleCmd.Flags().StringVar(&scheduleTaskFile, "tasks", "",
		"task definition file (default: <config dir>/tasks.toml)")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run backup tasks from a task file until interrupted",
	Long: `Load task definitions from a TOML file and run them until the
process receives SIGINT or SIGTERM. Interval tasks fire on a fixed
cadence; realtime tasks fire when the watched source tree changes,
debounced so a burst of writes produces one backup. After each backup
the task's retention count prunes old archives.

Shutdown is orderly: an in-flight backup finishes before the process
exits, and no timer or watch survives it.`,
	Example: `  arx schedule
  arx schedule --tasks /etc/arx/tasks.toml`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

// taskDef is one [[task]] entry in the task file.
type taskDef struct {
	// Mode selects the trigger: "interval" or "realtime".
	Mode   string `toml:"mode"`
	Source string `toml:"source"`
	Dest   string `toml:"dest"`
	Prefix string `toml:"prefix"`

	// Interval is required for interval tasks, e.g. "15m" or "1h".
	Interval string `toml:"interval,omitempty"`

	Keep      int    `toml:"keep,omitempty"`
	Algorithm string `toml:"algorithm,omitempty"`
	Password  string `toml:"password,omitempty"`

	FilterSuffixes       []string `toml:"filter_suffixes,omitempty"`
	FilterKeywords       []string `toml:"filter_keywords,omitempty"`
	FilterRegex          string   `toml:"filter_regex,omitempty"`
	FilterMinSize        uint64   `toml:"filter_min_size,omitempty"`
	FilterMaxSize        uint64   `toml:"filter_max_size,omitempty"`
	FilterModifiedAfter  string   `toml:"filter_modified_after,omitempty"`
	FilterModifiedBefore string   `toml:"filter_modified_before,omitempty"`
}

// filterOptions converts the definition's filter fields, enabled only
// when at least one criterion is present.
func (d taskDef) filterOptions() (filter.Options, error) {
	opts := filter.Options{
		Suffixes:  d.FilterSuffixes,
		Keywords:  d.FilterKeywords,
		NameRegex: d.FilterRegex,
		MinSize:   d.FilterMinSize,
		MaxSize:   d.FilterMaxSize,
	}
	if d.FilterModifiedAfter != "" {
		ts, err := parseFilterTime(d.FilterModifiedAfter)
		if err != nil {
			return filter.Options{}, err
		}
		opts.ModifiedAfter = ts
	}
	if d.FilterModifiedBefore != "" {
		ts, err := parseFilterTime(d.FilterModifiedBefore)
		if err != nil {
			return filter.Options{}, err
		}
		opts.ModifiedBefore = ts
	}
	opts.Enabled = len(d.FilterSuffixes) > 0 || len(d.FilterKeywords) > 0 ||
		d.FilterRegex != "" || d.FilterMinSize > 0 || d.FilterMaxSize > 0 ||
		d.FilterModifiedAfter != "" || d.FilterModifiedBefore != ""
	return opts, nil
}

// taskFile is the top-level task file structure.
type taskFile struct {
	Tasks []taskDef `toml:"task"`
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	return runScheduleWithWriter(cmd, os.Stdout)
}

func runScheduleWithWriter(cmd *cobra.Command, w io.Writer) error {
	path := scheduleTaskFile
	if path == "" {
		path = paths.TaskFile()
	}

	defs, err := loadTaskFile(path)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return errors.NewUserError(errors.Newf("no tasks defined in %s", path),
			"add at least one [[task]] entry")
	}

	logger := logging.FromContext(cmd.Context())
	debounce := scheduler.DefaultDebounce
	if cfg != nil && cfg.DebounceSeconds > 0 {
		debounce = time.Duration(cfg.DebounceSeconds) * time.Second
	}

	s := scheduler.New(
		scheduler.WithLogger(logger),
		scheduler.WithDebounce(debounce),
	)

	for i, def := range defs {
		if err := addTask(s, def); err != nil {
			return errors.Wrapf(err, "task %d in %s", i+1, path)
		}
	}

	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	fmt.Fprintf(w, "%s✓ %d task(s) running; press Ctrl-C to stop%s\n",
		colorGreen, len(defs), colorReset)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(w, "Shutting down...")
	return nil
}

// loadTaskFile reads and decodes the TOML task file.
func loadTaskFile(path string) ([]taskDef, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.NewUserError(err,
				fmt.Sprintf("create a task file at %s or pass --tasks", path))
		}
		return nil, err
	}

	var tf taskFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return nil, errors.Wrapf(err, "parsing task file %s", path)
	}
	return tf.Tasks, nil
}

// addTask registers one task definition with the scheduler.
func addTask(s *scheduler.Scheduler, def taskDef) error {
	src := paths.ExpandHome(def.Source)
	dst := paths.ExpandHome(def.Dest)
	if def.Prefix == "" {
		return errors.New("prefix is required")
	}

	keep := def.Keep
	if keep == 0 && cfg != nil {
		keep = cfg.KeepCount
	}

	var id int
	var err error
	switch def.Mode {
	case "interval", "":
		if def.Interval == "" {
			return errors.New("interval tasks need an interval")
		}
		interval, perr := time.ParseDuration(def.Interval)
		if perr != nil {
			return errors.Wrapf(perr, "parsing interval %q", def.Interval)
		}
		id, err = s.AddScheduledTask(src, dst, def.Prefix, interval, keep)
	case "realtime":
		id, err = s.AddRealtimeTask(src, dst, def.Prefix, keep)
	default:
		return errors.Newf("unknown mode %q (want interval or realtime)", def.Mode)
	}
	if err != nil {
		return err
	}

	if def.Algorithm != "" {
		algo, perr := compress.ParseAlgorithm(def.Algorithm)
		if perr != nil {
			return perr
		}
		if err := s.SetTaskCompressionAlgorithm(id, algo); err != nil {
			return err
		}
	}
	if def.Password != "" {
		if err := s.SetTaskPassword(id, def.Password); err != nil {
			return err
		}
	}
	opts, err := def.filterOptions()
	if err != nil {
		return err
	}
	if opts.Enabled {
		if err := s.SetTaskFilter(id, opts); err != nil {
			return err
		}
	}
	return nil
}
