package tuning

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tuning is the engine configuration loaded from tuning.yaml. Fields left
// out of the file keep their Defaults() value.
type Tuning struct {
	SnapshotEveryTurns int `yaml:"snapshot_every_turns"`
	TurnIntervalMs     int `yaml:"turn_interval_ms"`

	Setup Setup `yaml:"setup"`
	Rules Rules `yaml:"rules"`

	GroupWeights  map[string]float64            `yaml:"group_weights"`
	ActionWeights map[string]float64            `yaml:"action_weights"`
	Traits        map[string]map[string]float64 `yaml:"traits"`
}

type Setup struct {
	PointsPerTeam int     `yaml:"points_per_team"`
	StartRadius   int     `yaml:"start_radius"`
	NoiseScale    float64 `yaml:"noise_scale"`
}

// Rules are the numeric knobs of the action and turn engines.
type Rules struct {
	ShieldTurns     int `yaml:"shield_turns"`
	MaxLineStrength int `yaml:"max_line_strength"`
	StasisTurns     int `yaml:"stasis_turns"`
	AnchorTurns     int `yaml:"anchor_turns"`

	AnchorRadius    float64 `yaml:"anchor_radius"`
	NovaRadius      float64 `yaml:"nova_radius"`
	PulseRadius     float64 `yaml:"pulse_radius"`
	ZapRadius       float64 `yaml:"zap_radius"`
	SlamRadius      float64 `yaml:"slam_radius"`
	PushDistance    float64 `yaml:"push_distance"`
	SpawnRadius     float64 `yaml:"spawn_radius"`
	ConvertRange    float64 `yaml:"convert_range"`
	StrikeRange     float64 `yaml:"strike_range"`
	PincerRange     float64 `yaml:"pincer_range"`
	MirrorMinDistSq float64 `yaml:"mirror_min_dist_sq"`

	WhirlpoolTurns  int     `yaml:"whirlpool_turns"`
	WhirlpoolRadius float64 `yaml:"whirlpool_radius"`
	WhirlpoolSwirl  float64 `yaml:"whirlpool_swirl"`
	WhirlpoolPull   float64 `yaml:"whirlpool_pull"`
	RiftTrapTurns   int     `yaml:"rift_trap_turns"`
	RiftTrapRadius  float64 `yaml:"rift_trap_radius"`
	ScorchedTurns   int     `yaml:"scorched_turns"`
	FissureTurns    int     `yaml:"fissure_turns"`
	BarricadeTurns  int     `yaml:"barricade_turns"`

	MonolithChargeInterval int     `yaml:"monolith_charge_interval"`
	MonolithWaveRadius     float64 `yaml:"monolith_wave_radius"`
	NexusInterval          int     `yaml:"nexus_interval"`
	NexusRadius            float64 `yaml:"nexus_radius"`
	LeyLineInterval        int     `yaml:"ley_line_interval"`
	LeyLineRadius          float64 `yaml:"ley_line_radius"`
	HeartwoodInterval      int     `yaml:"heartwood_interval"`
	WonderCountdown        int     `yaml:"wonder_countdown"`
	RiftSpireCharge        int     `yaml:"rift_spire_charge"`
	DominanceTurns         int     `yaml:"dominance_turns"`

	FractureMinLengthSq float64 `yaml:"fracture_min_length_sq"`
	MinSpacing          float64 `yaml:"min_spacing"`
	OrbitalRadius       float64 `yaml:"orbital_radius"`
	// OrbitalCount fixes the ring size; zero draws 3 to 6.
	OrbitalCount        int     `yaml:"orbital_count"`
	ChainLightningHops  int     `yaml:"chain_lightning_hops"`
	ChainLightningRange float64 `yaml:"chain_lightning_range"`
}

// Action groups, mirrored from the action engine so the config layer has
// no dependency on it.
var Groups = []string{"Expand", "Fight", "Fortify", "Sacrifice", "Terraform", "Rune"}

var Traits = []string{"Balanced", "Aggressive", "Defensive", "Expansive", "Mystic"}

func Defaults() Tuning {
	return Tuning{
		SnapshotEveryTurns: 50,
		TurnIntervalMs:     250,
		Setup: Setup{
			PointsPerTeam: 3,
			StartRadius:   3,
			NoiseScale:    0.15,
		},
		Rules: Rules{
			ShieldTurns:     3,
			MaxLineStrength: 3,
			StasisTurns:     3,
			AnchorTurns:     5,

			AnchorRadius:    5,
			NovaRadius:      4,
			PulseRadius:     4,
			ZapRadius:       2,
			SlamRadius:      3,
			PushDistance:    2,
			SpawnRadius:     3,
			ConvertRange:    6,
			StrikeRange:     8,
			PincerRange:     2,
			MirrorMinDistSq: 4,

			WhirlpoolTurns:  4,
			WhirlpoolRadius: 4,
			WhirlpoolSwirl:  0.5,
			WhirlpoolPull:   1,
			RiftTrapTurns:   4,
			RiftTrapRadius:  2,
			ScorchedTurns:   5,
			FissureTurns:    8,
			BarricadeTurns:  6,

			MonolithChargeInterval: 3,
			MonolithWaveRadius:     6,
			NexusInterval:          4,
			NexusRadius:            5,
			LeyLineInterval:        3,
			LeyLineRadius:          2,
			HeartwoodInterval:      5,
			WonderCountdown:        10,
			RiftSpireCharge:        3,
			DominanceTurns:         3,

			FractureMinLengthSq: 16,
			MinSpacing:          2,
			OrbitalRadius:       3,
			OrbitalCount:        0,
			ChainLightningHops:  3,
			ChainLightningRange: 5,
		},
		GroupWeights: map[string]float64{
			"Expand":    1.0,
			"Fight":     1.0,
			"Fortify":   1.0,
			"Sacrifice": 0.3,
			"Terraform": 0.3,
			"Rune":      1.2,
		},
		ActionWeights: map[string]float64{},
		Traits: map[string]map[string]float64{
			"Balanced":   {},
			"Aggressive": {"Fight": 2.0, "Sacrifice": 1.5, "Fortify": 0.6},
			"Defensive":  {"Fortify": 2.0, "Terraform": 1.5, "Fight": 0.6, "Sacrifice": 0.5},
			"Expansive":  {"Expand": 2.0, "Fight": 0.8},
			"Mystic":     {"Rune": 2.0, "Fortify": 1.3, "Expand": 0.8},
		},
	}
}

// Load reads path over Defaults().
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.SnapshotEveryTurns < 0 {
		return fmt.Errorf("snapshot_every_turns must be >= 0")
	}
	for _, g := range sortedKeys(t.GroupWeights) {
		if w := t.GroupWeights[g]; w < 0 {
			return fmt.Errorf("group_weights.%s: negative weight %v", g, w)
		}
	}
	for _, a := range sortedKeys(t.ActionWeights) {
		if w := t.ActionWeights[a]; w < 0 {
			return fmt.Errorf("action_weights.%s: negative weight %v", a, w)
		}
	}
	for _, tr := range sortedKeys(t.Traits) {
		for _, g := range sortedKeys(t.Traits[tr]) {
			if t.Traits[tr][g] < 0 {
				return fmt.Errorf("traits.%s.%s: negative multiplier", tr, g)
			}
		}
	}
	r := t.Rules
	if r.MaxLineStrength < 1 || r.DominanceTurns < 1 || r.MonolithChargeInterval < 1 ||
		r.NexusInterval < 1 || r.LeyLineInterval < 1 || r.HeartwoodInterval < 1 {
		return fmt.Errorf("rules: strengths and intervals must be >= 1")
	}
	if r.MinSpacing < 0 {
		return fmt.Errorf("rules: min_spacing must be >= 0")
	}
	return nil
}

// KnownTrait reports whether a trait has a multiplier table.
func (t Tuning) KnownTrait(name string) bool {
	_, ok := t.Traits[name]
	return ok
}

// Weight is the selection weight of an action for a team with the given
// trait: group weight times trait multiplier times any per-action factor.
func (t Tuning) Weight(group, actionID, trait string) float64 {
	w, ok := t.GroupWeights[group]
	if !ok {
		w = 1
	}
	if m, ok := t.Traits[trait][group]; ok {
		w *= m
	}
	if m, ok := t.ActionWeights[actionID]; ok {
		w *= m
	}
	return w
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
