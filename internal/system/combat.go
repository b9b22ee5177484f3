package system

import (
	"fmt"
	"time"

	"github.com/ecsdemos/runtime/internal/component"
	"github.com/ecsdemos/runtime/internal/core/ecs"
	"github.com/ecsdemos/runtime/internal/core/root"
	"github.com/ecsdemos/runtime/internal/scripting"
)

// DamageEngine applies the hero's hit to every enemy each tick.
type DamageEngine struct {
	dbHolder
	groups   Groups
	formulas *scripting.Engine
	power    int
	ticks    uint64
}

func NewDamageEngine(groups Groups, formulas *scripting.Engine, power int) *DamageEngine {
	return &DamageEngine{groups: groups, formulas: formulas, power: power}
}

func (d *DamageEngine) Name() string { return "damage" }

func (d *DamageEngine) Ready() error {
	return d.db.ValidateQuery([]ecs.GroupID{d.groups.Enemies},
		ecs.Component[component.Health](), ecs.Component[component.Armor]())
}

func (d *DamageEngine) Step(_ time.Duration) error {
	d.ticks++
	rows, err := ecs.Query2[component.Health, component.Armor](d.db, d.groups.Enemies)
	if err != nil {
		return err
	}
	for _, r := range rows {
		for i := 0; i < r.Count; i++ {
			h := &r.A[i]
			if h.HP <= 0 {
				continue
			}
			res, err := d.formulas.CalcHit(scripting.HitContext{
				Tick:          d.ticks,
				AttackerPower: d.power,
				TargetArmor:   r.B[i].Value,
				TargetHP:      h.HP,
			})
			if err != nil {
				return fmt.Errorf("hit %v: %w", ecs.NewEGID(r.IDs[i], r.Group), err)
			}
			h.HP -= res.Damage
		}
	}
	return nil
}

// DeathEngine moves enemies whose health ran out to the dead group. It must
// run after DamageEngine in the same tick.
type DeathEngine struct {
	dbHolder
	groups    Groups
	functions *root.Functions
}

func NewDeathEngine(groups Groups, functions *root.Functions) *DeathEngine {
	return &DeathEngine{groups: groups, functions: functions}
}

func (d *DeathEngine) Name() string { return "death" }

func (d *DeathEngine) Step(_ time.Duration) error {
	var swapErr error
	err := ecs.Each1(d.db, []ecs.GroupID{d.groups.Enemies}, func(egid ecs.EGID, h *component.Health) {
		if h.HP > 0 || swapErr != nil {
			return
		}
		h.HP = 0
		_, swapErr = d.functions.SwapGroup(egid, d.groups.Dead)
	})
	if err != nil {
		return err
	}
	return swapErr
}

// DeathAnimEngine plays the death animation of corpses and removes them when
// it ends. It must run after DeathEngine.
type DeathAnimEngine struct {
	dbHolder
	groups    Groups
	functions *root.Functions
	formulas  *scripting.Engine
}

func NewDeathAnimEngine(groups Groups, functions *root.Functions, formulas *scripting.Engine) *DeathAnimEngine {
	return &DeathAnimEngine{groups: groups, functions: functions, formulas: formulas}
}

func (d *DeathAnimEngine) Name() string { return "deathAnim" }

func (d *DeathAnimEngine) Step(_ time.Duration) error {
	rows, err := ecs.Query2[component.Health, component.DeathAnim](d.db, d.groups.Dead)
	if err != nil {
		return err
	}
	for _, r := range rows {
		for i := 0; i < r.Count; i++ {
			a := &r.B[i]
			if !a.Started {
				frames, err := d.formulas.DeathAnimFrames(r.A[i].Max)
				if err != nil {
					return err
				}
				a.Started, a.Remaining = true, frames
			}
			a.Remaining--
			if a.Remaining <= 0 {
				if err := d.functions.Remove(ecs.NewEGID(r.IDs[i], r.Group)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
