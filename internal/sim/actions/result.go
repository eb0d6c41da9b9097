package actions

import (
	"strconv"
	"strings"

	"runegrid.ai/internal/sim/state"
)

// OutcomeKind discriminates what an action did.
type OutcomeKind string

const (
	OutcomeLineCreated       OutcomeKind = "line_created"
	OutcomeLineExtended      OutcomeKind = "line_extended"
	OutcomeBranchGrown       OutcomeKind = "branch_grown"
	OutcomeLineFractured     OutcomeKind = "line_fractured"
	OutcomePointSpawned      OutcomeKind = "point_spawned"
	OutcomeOrbitalFormed     OutcomeKind = "orbital_formed"
	OutcomePointsMirrored    OutcomeKind = "points_mirrored"
	OutcomeLineStrengthened  OutcomeKind = "line_strengthened"
	OutcomeLinesStrengthened OutcomeKind = "lines_strengthened"
	OutcomeLineShielded      OutcomeKind = "line_shielded"
	OutcomeShieldRefreshed   OutcomeKind = "shield_refreshed"
	OutcomeEnemyDamaged      OutcomeKind = "enemy_damaged"
	OutcomeEnemyDestroyed    OutcomeKind = "enemy_destroyed"
	OutcomeLinesSevered      OutcomeKind = "lines_severed"
	OutcomePointConverted    OutcomeKind = "point_converted"
	OutcomePointsPushed      OutcomeKind = "points_pushed"
	OutcomePointMoved        OutcomeKind = "point_moved"
	OutcomeTerritoryClaimed  OutcomeKind = "territory_claimed"
	OutcomeTerritoryPurified OutcomeKind = "territory_purified"
	OutcomeStructureFormed   OutcomeKind = "structure_formed"
	OutcomeFieldCreated      OutcomeKind = "field_created"
	OutcomePointsFrozen      OutcomeKind = "points_frozen"
	OutcomeFailed            OutcomeKind = "failed"
)

// Effect carries the fields one outcome needs.
type Effect interface {
	fields() map[string]string
}

type Created struct {
	Points []string
	Lines  []string
}

type Strengthened struct {
	Lines    []string
	Strength int
}

type Shielded struct {
	Lines []string
	Turns int
}

// Damaged lists enemy material hit by an attack.
type Damaged struct {
	Destroyed []string // lines removed
	Weakened  []string // lines that lost strength or a shield
	Points    []string // points destroyed
}

type Converted struct {
	Points []string
}

type Moved struct {
	Points []string
}

type Claimed struct {
	TerritoryID string
}

type Purified struct {
	TerritoryID string
	TeamID      string
}

type Formed struct {
	StructureID string
	Kind        state.StructureKind
}

type Field struct {
	EffectID string
	Kind     string
}

type Frozen struct {
	Points []string
	Turns  int
}

func join(ids []string) string { return strings.Join(ids, ",") }

func (c Created) fields() map[string]string {
	return map[string]string{"points": join(c.Points), "lines": join(c.Lines), "count": strconv.Itoa(len(c.Points))}
}

func (s Strengthened) fields() map[string]string {
	return map[string]string{"lines": join(s.Lines), "count": strconv.Itoa(len(s.Lines)), "strength": strconv.Itoa(s.Strength)}
}

func (s Shielded) fields() map[string]string {
	return map[string]string{"lines": join(s.Lines), "count": strconv.Itoa(len(s.Lines)), "turns": strconv.Itoa(s.Turns)}
}

func (d Damaged) fields() map[string]string {
	return map[string]string{
		"lines":    join(d.Destroyed),
		"weakened": join(d.Weakened),
		"points":   join(d.Points),
		"count":    strconv.Itoa(len(d.Destroyed) + len(d.Points)),
	}
}

func (c Converted) fields() map[string]string {
	return map[string]string{"points": join(c.Points), "count": strconv.Itoa(len(c.Points))}
}

func (m Moved) fields() map[string]string {
	return map[string]string{"points": join(m.Points), "count": strconv.Itoa(len(m.Points))}
}

func (c Claimed) fields() map[string]string {
	return map[string]string{"territory": c.TerritoryID}
}

func (p Purified) fields() map[string]string {
	return map[string]string{"territory": p.TerritoryID, "enemy": p.TeamID}
}

func (f Formed) fields() map[string]string {
	return map[string]string{"structure": f.StructureID, "kind": string(f.Kind)}
}

func (f Field) fields() map[string]string {
	return map[string]string{"effect": f.EffectID, "kind": f.Kind}
}

func (f Frozen) fields() map[string]string {
	return map[string]string{"points": join(f.Points), "count": strconv.Itoa(len(f.Points)), "turns": strconv.Itoa(f.Turns)}
}

// Result is the outcome of one Apply call.
type Result struct {
	ActionID   string
	Kind       OutcomeKind
	Effect     Effect
	Sacrificed []string
	Fallback   bool
	Reason     string

	message string
}

func (r Result) OK() bool { return r.Kind != OutcomeFailed && r.Kind != "" }

// Message renders the log line for a team display name.
func (r Result) Message(teamName string) string {
	if !r.OK() {
		return teamName + " failed " + r.ActionID + ": " + r.Reason
	}
	return strings.ReplaceAll(r.message, "{team}", teamName)
}

// Fields exposes the effect's values for logs and the wire.
func (r Result) Fields() map[string]string {
	out := map[string]string{}
	if r.Effect != nil {
		for k, v := range r.Effect.fields() {
			out[k] = v
		}
	}
	if len(r.Sacrificed) > 0 {
		out["sacrificed"] = join(r.Sacrificed)
	}
	return out
}

func render(tpl string, r Result) string {
	if tpl == "" {
		tpl = "{team} performed " + r.ActionID
	}
	f := r.Fields()
	pairs := make([]string, 0, 2*len(f))
	for k, v := range f {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

func success(k OutcomeKind, eff Effect) Result { return Result{Kind: k, Effect: eff} }

func asFallback(r Result) Result {
	r.Fallback = true
	return r
}

func failed(reason string) Result { return Result{Kind: OutcomeFailed, Reason: reason} }

var defaultTemplates = map[OutcomeKind]string{
	OutcomeLineCreated:       "{team} drew a new line {lines}.",
	OutcomeLineExtended:      "{team} extended a line to the border, founding {points}.",
	OutcomeBranchGrown:       "{team} grew a branch to {points}.",
	OutcomeLineFractured:     "{team} fractured a line at {points}.",
	OutcomePointSpawned:      "{team} placed a new point {points}.",
	OutcomeOrbitalFormed:     "{team} ringed {count} orbital points.",
	OutcomePointsMirrored:    "{team} mirrored {count} points.",
	OutcomeLineStrengthened:  "{team} reinforced line {lines} to strength {strength}.",
	OutcomeLinesStrengthened: "{team} reinforced {count} lines.",
	OutcomeLineShielded:      "{team} shielded line {lines} for {turns} turns.",
	OutcomeShieldRefreshed:   "{team} refreshed the shield on {lines}.",
	OutcomeEnemyDamaged:      "{team} weakened enemy line {weakened}.",
	OutcomeEnemyDestroyed:    "{team} destroyed {count} enemy targets.",
	OutcomeLinesSevered:      "{team} severed lines {lines}.",
	OutcomePointConverted:    "{team} converted {points}.",
	OutcomePointsPushed:      "{team} pushed {count} points.",
	OutcomePointMoved:        "{team} repositioned {points}.",
	OutcomeTerritoryClaimed:  "{team} claimed territory {territory}.",
	OutcomeTerritoryPurified: "{team} purified territory {territory} of {enemy}.",
	OutcomeStructureFormed:   "{team} formed a {kind} ({structure}).",
	OutcomeFieldCreated:      "{team} created a {kind} ({effect}).",
	OutcomePointsFrozen:      "{team} froze {points} for {turns} turns.",
}
