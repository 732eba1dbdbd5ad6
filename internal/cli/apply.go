package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	applylm "github.com/ieee0824/applylm-go"
	"github.com/ieee0824/applylm-go/fst"
	"github.com/ieee0824/applylm-go/internal/config"
	"github.com/ieee0824/applylm-go/internal/logger"
)

type applyFlags struct {
	configPath  string
	lmPath      string
	wordmap     string
	scale       float64
	wordPenalty float64
	naturalLog  bool
	epsilons    []int
	format      string
	outDir      string
	workers     int
}

func (c *CLI) newApplyCommand() *cobra.Command {
	var f applyFlags

	cmd := &cobra.Command{
		Use:   "apply [lattices...]",
		Short: "Apply a language model to lattices",
		Example: `  # Rescore one text lattice to stdout
  applylm apply --lm model.arpa lat.txt

  # Rescore a directory of binary lattices with a wordmap
  applylm apply --lm model.arpa --wordmap words.txt --format msgpack --out-dir out lats/*.bin

  # Read settings from a file and override the LM scale
  applylm apply --config applylm.toml --scale 0.8 lat.txt

  # Read one lattice from stdin
  cat lat.txt | applylm apply --lm model.arpa`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolveConfig(cmd, &f)
			if err != nil {
				return err
			}
			return c.apply(cmd, cfg, f.outDir, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "TOML configuration file")
	fl.StringVar(&f.lmPath, "lm", "", "ARPA language model")
	fl.StringVar(&f.wordmap, "wordmap", "", "lattice label wordmap (default: labels are model word ids)")
	fl.Float64Var(&f.scale, "scale", 1.0, "language model scale")
	fl.Float64Var(&f.wordPenalty, "word-penalty", 0.0, "cost added per scored word")
	fl.BoolVar(&f.naturalLog, "natural-log", true, "costs as negated natural logs instead of log10")
	fl.IntSliceVar(&f.epsilons, "epsilons", []int{0}, "output labels transparent to the model")
	fl.StringVar(&f.format, "format", applylm.FormatText, "lattice format: text or msgpack")
	fl.StringVarP(&f.outDir, "out-dir", "o", "", "directory for rescored lattices (default: stdout for a single lattice)")
	fl.IntVarP(&f.workers, "workers", "j", 0, "lattices composed in parallel (0: one per CPU)")
	return cmd
}

// resolveConfig loads the config file and applies the flags the user set.
func (c *CLI) resolveConfig(cmd *cobra.Command, f *applyFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("lm") {
		cfg.LM.Path = f.lmPath
	}
	if fl.Changed("wordmap") {
		cfg.Lattice.WordMap = f.wordmap
	}
	if fl.Changed("scale") {
		cfg.LM.Scale = f.scale
	}
	if fl.Changed("word-penalty") {
		cfg.LM.WordPenalty = f.wordPenalty
	}
	if fl.Changed("natural-log") {
		cfg.LM.NaturalLog = f.naturalLog
	}
	if fl.Changed("epsilons") {
		cfg.LM.Epsilons = make([]int32, len(f.epsilons))
		for i, l := range f.epsilons {
			cfg.LM.Epsilons[i] = int32(l)
		}
	}
	if fl.Changed("format") {
		cfg.Lattice.Format = f.format
	}
	if fl.Changed("workers") {
		cfg.Run.Workers = f.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.verbose {
		c.setLevel(logger.ParseLevel(cfg.Run.LogLevel))
	}
	return cfg, nil
}

func (c *CLI) apply(cmd *cobra.Command, cfg *config.Config, outDir string, inputs []string) error {
	if outDir == "" && len(inputs) > 1 {
		return errors.New("--out-dir is required for more than one lattice")
	}

	start := time.Now()
	a, err := applylm.NewApplier(cfg.LM.Path, cfg.Lattice.WordMap,
		applylm.WithEngineConfig(cfg.Engine()),
		applylm.WithWorkers(cfg.Run.Workers),
		applylm.WithFixedContext(cfg.LM.FixedContext),
		applylm.WithLogger(c.log),
	)
	if err != nil {
		return err
	}
	c.log.Info("Loaded language model", "path", cfg.LM.Path, "order", a.LM.Order(), "words", a.LM.Vocab().Size(), "duration", time.Since(start))

	lattices := make([]*fst.VectorFST[fst.TropicalWeight], 0, max(len(inputs), 1))
	if len(inputs) == 0 {
		lat, err := applylm.ReadLattice(cmd.InOrStdin(), cfg.Lattice.Format)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		lattices = append(lattices, lat)
	}
	for _, path := range inputs {
		lat, err := applylm.ReadLatticeFile(path, cfg.Lattice.Format)
		if err != nil {
			return err
		}
		lattices = append(lattices, lat)
	}

	start = time.Now()
	results, batchErr := a.ApplyBatch(context.Background(), lattices)
	c.log.Debug("Batch finished", "duration", time.Since(start))

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}
	}
	for i, r := range results {
		name := "stdin"
		if i < len(inputs) {
			name = inputs[i]
		}
		switch {
		case r.Skipped:
			c.log.Warn("Skipped empty lattice", "input", name)
			continue
		case r.Err != nil:
			continue
		}
		if outDir == "" {
			if err := applylm.WriteLattice(cmd.OutOrStdout(), cfg.Lattice.Format, r.Lattice); err != nil {
				return err
			}
			continue
		}
		dest := filepath.Join(outDir, filepath.Base(name))
		if err := applylm.WriteLatticeFile(dest, cfg.Lattice.Format, r.Lattice); err != nil {
			return err
		}
		c.log.Debug("Wrote lattice", "path", dest, "states", r.Stats.States, "arcs", r.Stats.Arcs)
	}
	return batchErr
}
