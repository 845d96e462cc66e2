package synth

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultPatchType is the patch bank used when none is given.
const DefaultPatchType = "single"

//go:embed schema.json
var schemaData []byte

var profileSchema = mustSchema(schemaData)

func mustSchema(data []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("compile profile schema: %v", err))
	}
	return schema
}

// Effect is one entry of the effects table.
type Effect struct {
	Code Value `json:"code"`
}

// ControllerInfo describes a continuous controller. Values sent through it
// are clamped into [MinValue, MaxValue].
type ControllerInfo struct {
	CCNumber int `json:"cc_number"`
	MinValue int `json:"min_value"`
	MaxValue int `json:"max_value"`
}

func (c *ControllerInfo) UnmarshalJSON(data []byte) error {
	info := struct {
		CCNumber number `json:"cc_number"`
		MinValue number `json:"min_value"`
		MaxValue number `json:"max_value"`
	}{MaxValue: 127}
	if err := json.Unmarshal(data, &info); err != nil {
		return err
	}
	*c = ControllerInfo{CCNumber: int(info.CCNumber), MinValue: int(info.MinValue), MaxValue: int(info.MaxValue)}
	return nil
}

func (c ControllerInfo) validate() error {
	for _, v := range []int{c.CCNumber, c.MinValue, c.MaxValue} {
		if v < 0 || v > 127 {
			return fmt.Errorf("%w: %d is outside 0-127", ErrInvalidValue, v)
		}
	}
	if c.MinValue > c.MaxValue {
		return fmt.Errorf("%w: min_value %d above max_value %d", ErrInvalidValue, c.MinValue, c.MaxValue)
	}
	return nil
}

type patchBank = orderedmap.OrderedMap[string, Value]

// Profile maps the names of one synthesizer's patches, effects and
// controllers to MIDI values. Patch and effect listings follow document order.
// A Profile is not safe for concurrent mutation.
type Profile struct {
	Manufacturer   string
	Model          string
	DefaultChannel int

	patches     *orderedmap.OrderedMap[string, *patchBank]
	effects     *orderedmap.OrderedMap[string, Effect]
	controllers *orderedmap.OrderedMap[string, ControllerInfo]
}

type document struct {
	Manufacturer   string                                         `json:"manufacturer"`
	Model          string                                         `json:"model"`
	DefaultChannel number                                         `json:"default_channel"`
	Patches        *orderedmap.OrderedMap[string, *patchBank]     `json:"patches,omitempty"`
	Effects        *orderedmap.OrderedMap[string, Effect]         `json:"effects,omitempty"`
	Controllers    *orderedmap.OrderedMap[string, ControllerInfo] `json:"controllers,omitempty"`
}

// NewProfile returns an empty profile.
func NewProfile(manufacturer, model string, defaultChannel int) *Profile {
	return &Profile{
		Manufacturer:   manufacturer,
		Model:          model,
		DefaultChannel: defaultChannel,
		patches:        orderedmap.New[string, *patchBank](),
		effects:        orderedmap.New[string, Effect](),
		controllers:    orderedmap.New[string, ControllerInfo](),
	}
}

// ParseProfile validates data against the profile schema and decodes it.
// Unknown keys are ignored and not kept.
func ParseProfile(data []byte) (*Profile, error) {
	result, err := profileSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	p := NewProfile(doc.Manufacturer, doc.Model, int(doc.DefaultChannel))
	if doc.Patches != nil {
		for pair := doc.Patches.Oldest(); pair != nil; pair = pair.Next() {
			bank := pair.Value
			if bank == nil {
				bank = orderedmap.New[string, Value]()
			}
			p.patches.Set(pair.Key, bank)
		}
	}
	if doc.Effects != nil {
		p.effects = doc.Effects
	}
	if doc.Controllers != nil {
		for pair := doc.Controllers.Oldest(); pair != nil; pair = pair.Next() {
			if err := pair.Value.validate(); err != nil {
				return nil, fmt.Errorf("controller %q: %w", pair.Key, err)
			}
		}
		p.controllers = doc.Controllers
	}
	return p, nil
}

func (p *Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Manufacturer:   p.Manufacturer,
		Model:          p.Model,
		DefaultChannel: number(p.DefaultChannel),
		Patches:        p.patches,
		Effects:        p.effects,
		Controllers:    p.controllers,
	})
}

// DisplayName is "manufacturer model" with surrounding blanks removed.
func (p *Profile) DisplayName() string {
	return strings.TrimSpace(p.Manufacturer + " " + p.Model)
}

// PatchValue resolves a patch name within a patch type.
func (p *Profile) PatchValue(name, patchType string) (int, bool) {
	bank, ok := p.patches.Get(patchType)
	if !ok {
		return 0, false
	}
	v, ok := bank.Get(name)
	if !ok {
		return 0, false
	}
	return v.Int(), true
}

// EffectValue resolves an effect name to its code.
func (p *Profile) EffectValue(name string) (int, bool) {
	e, ok := p.effects.Get(name)
	if !ok {
		return 0, false
	}
	return e.Code.Int(), true
}

// Controller looks up a controller by name.
func (p *Profile) Controller(name string) (ControllerInfo, bool) {
	return p.controllers.Get(name)
}

// PatchTypes lists the patch types in document order.
func (p *Profile) PatchTypes() iter.Seq[string] {
	return keys(func() *orderedmap.OrderedMap[string, *patchBank] { return p.patches })
}

// PatchNames lists the patches of one type in document order. The sequence
// reads the profile each time it is ranged over, so it sees later changes.
func (p *Profile) PatchNames(patchType string) iter.Seq[string] {
	return keys(func() *patchBank {
		bank, _ := p.patches.Get(patchType)
		return bank
	})
}

// PatchCount returns the number of patches of one type.
func (p *Profile) PatchCount(patchType string) int {
	bank, ok := p.patches.Get(patchType)
	if !ok {
		return 0
	}
	return bank.Len()
}

// EffectNames lists the effects in document order.
func (p *Profile) EffectNames() iter.Seq[string] {
	return keys(func() *orderedmap.OrderedMap[string, Effect] { return p.effects })
}

// ControllerNames lists the controllers in document order.
func (p *Profile) ControllerNames() iter.Seq[string] {
	return keys(func() *orderedmap.OrderedMap[string, ControllerInfo] { return p.controllers })
}

func keys[V any](current func() *orderedmap.OrderedMap[string, V]) iter.Seq[string] {
	return func(yield func(string) bool) {
		m := current()
		if m == nil {
			return
		}
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key) {
				return
			}
		}
	}
}

// SetPatch adds or replaces a patch. New patch types and names go last.
func (p *Profile) SetPatch(patchType, name string, v Value) error {
	if err := v.validate(); err != nil {
		return err
	}
	bank, ok := p.patches.Get(patchType)
	if !ok {
		bank = orderedmap.New[string, Value]()
		p.patches.Set(patchType, bank)
	}
	bank.Set(name, v)
	return nil
}

// SetEffect adds or replaces an effect.
func (p *Profile) SetEffect(name string, code Value) error {
	if err := code.validate(); err != nil {
		return err
	}
	p.effects.Set(name, Effect{Code: code})
	return nil
}

// SetController adds or replaces a controller.
func (p *Profile) SetController(name string, info ControllerInfo) error {
	if err := info.validate(); err != nil {
		return err
	}
	p.controllers.Set(name, info)
	return nil
}
