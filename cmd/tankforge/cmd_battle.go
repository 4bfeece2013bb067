package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tankforge/internal/sandbox"
	"tankforge/internal/sim"
	"tankforge/internal/store"
	"tankforge/internal/watch"
)

var (
	battleWatch bool
	battleTicks int
)

// battleCmd runs a headless battle between stored behaviors and/or script
// files.
var battleCmd = &cobra.Command{
	Use:   "battle [script.tank...]",
	Short: "Run a headless battle between tank scripts",
	Long: `Runs a headless arena battle. Each argument is a script file bound to one
tank; with no arguments, all behaviors stored in slots are used.

With --watch, script files are hot-reloaded mid-battle when they change.`,
	RunE: runBattle,
}

func init() {
	battleCmd.Flags().BoolVar(&battleWatch, "watch", false, "hot-reload script files on change")
	battleCmd.Flags().IntVar(&battleTicks, "ticks", 0, "max ticks (0: use config)")
}

func runBattle(cmd *cobra.Command, args []string) error {
	battle := sim.NewBattle(cfg.Arena.Width, cfg.Arena.Height)

	units := make(map[string]*sandbox.Unit) // script path -> unit, for hot reload
	var names []string

	if len(args) > 0 {
		for i, path := range args {
			code, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			unit := placeTank(battle, name, i, len(args))
			if err := unit.SetCode(string(code)); err != nil {
				logger.Warn("script failed to compile; tank will idle",
					zap.String("tank", name), zap.Error(err))
			}
			abs, _ := filepath.Abs(path)
			units[abs] = unit
			names = append(names, name)
		}
	} else {
		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		behaviors, err := st.LoadAll()
		st.Close()
		if err != nil {
			return err
		}
		if len(behaviors) < 2 {
			return fmt.Errorf("need at least 2 stored behaviors (or script files) to battle")
		}

		slots := make([]int, 0, len(behaviors))
		for slot := range behaviors {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		for i, slot := range slots {
			b := behaviors[slot]
			name := fmt.Sprintf("slot-%d", slot)
			unit := placeTank(battle, name, i, len(slots))
			if !b.IsValid {
				logger.Warn("stored behavior is invalid; tank will idle", zap.String("tank", name))
				continue
			}
			if err := unit.SetCode(b.Code); err != nil {
				logger.Warn("stored behavior failed to compile; tank will idle",
					zap.String("tank", name), zap.Error(err))
			}
			names = append(names, name)
		}
	}

	maxTicks := battleTicks
	if maxTicks <= 0 {
		maxTicks = cfg.Arena.MaxTicks
	}

	logger.Info("battle starting",
		zap.Strings("tanks", names),
		zap.Int("max_ticks", maxTicks))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if battleWatch && len(args) > 0 {
		dir := filepath.Dir(args[0])
		g.Go(func() error {
			err := watch.Scripts(ctx, dir, func(path string) {
				abs, _ := filepath.Abs(path)
				unit, ok := units[abs]
				if !ok {
					return
				}
				code, err := os.ReadFile(path)
				if err != nil {
					logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
					return
				}
				if err := unit.SetCode(string(code)); err != nil {
					logger.Warn("reloaded script failed to compile",
						zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("script hot-reloaded", zap.String("path", path))
			})
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		defer cancel()
		survivor := battle.Run(maxTicks)
		if survivor != nil {
			fmt.Printf("winner: %s after %d ticks (health %.0f)\n",
				survivor.Name(), battle.Tick(), survivor.Health())
		} else {
			fmt.Printf("no winner after %d ticks\n", battle.Tick())
		}
		for _, t := range battle.Tanks() {
			fmt.Printf("  %-12s health=%.0f active=%v\n", t.Name(), t.Health(), t.Active())
		}
		return nil
	})

	return g.Wait()
}

// placeTank spreads n tanks evenly around the arena center, facing inward.
func placeTank(battle *sim.Battle, name string, i, n int) *sandbox.Unit {
	w, h := battle.Size()
	cx, cy := w/2, h/2
	radius := math.Min(w, h) * 0.35

	angle := 2 * math.Pi * float64(i) / float64(n)
	x := cx + radius*math.Cos(angle)
	y := cy + radius*math.Sin(angle)
	heading := angle*180/math.Pi + 180 // face the center

	tank := sim.NewTank(name, x, y, heading)
	unit := sandbox.NewUnit(tank)
	battle.AddTank(tank, unit)
	return unit
}
