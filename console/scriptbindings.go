package console

import (
	goccy "github.com/goccy/go-json"
	"rogchap.com/v8go"

	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/script"
)

// jsonValue renders v into the script's context as a real JS value.
func jsonValue(rc *script.RunContext, v any) *v8go.Value {
	encoded, err := goccy.Marshal(v)
	if err != nil {
		return rc.Throw("encoding result: %v", err)
	}
	value, err := v8go.JSONParse(rc.Context(), string(encoded))
	if err != nil {
		return rc.Throw("parsing result: %v", err)
	}
	return value
}

// scriptBindings exposes the wizard operations as global functions inside
// /js scripts. The environment is resolved per call, like it is per
// command.
func (s *Session) scriptBindings() script.Bindings {
	withEnv := func(f func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value) func(*script.RunContext, *v8go.FunctionCallbackInfo) *v8go.Value {
		return func(rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			env, err := s.env()
			if err != nil {
				return rc.Throw("%v", err)
			}
			return f(env, rc, info)
		}
	}
	return script.Bindings{
		"goto": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 2 {
				return rc.Throw("goto(x, y)")
			}
			pos, err := teleport(env, args[0].Number(), args[1].Number())
			if err != nil {
				return rc.Throw("%v", err)
			}
			return rc.String(pos.String())
		}),
		"setstat": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 2 {
				return rc.Throw("setstat(name, value)")
			}
			if err := setStat(env, args[0].String(), args[1].Number()); err != nil {
				return rc.Throw("%v", err)
			}
			return nil
		}),
		"stat": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 1 {
				return rc.Throw("stat(name)")
			}
			attributes, err := env.attributes()
			if err != nil {
				return rc.Throw("%v", err)
			}
			value, found := attributes.BaseValue(engine.AttributeType(args[0].String()))
			if !found {
				return rc.Throw("unknown attribute %q", args[0].String())
			}
			return jsonValue(rc, value)
		}),
		"desync": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			pos, err := desync(env, s.rng)
			if err != nil {
				return rc.Throw("%v", err)
			}
			return rc.String(pos.String())
		}),
		"equip": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 1 {
				return rc.Throw("equip(item entity or name)")
			}
			item, err := findInventoryItem(env, args[0].String())
			if err != nil {
				return rc.Throw("%v", err)
			}
			slot, err := equipItem(env, item)
			if err != nil {
				return rc.Throw("%v", err)
			}
			return jsonValue(rc, slot.ID())
		}),
		"unequip": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 1 {
				return rc.Throw("unequip(slot id)")
			}
			item, err := unequipSlot(env, engine.ComponentID(args[0].Integer()))
			if err != nil {
				return rc.Throw("%v", err)
			}
			return jsonValue(rc, item)
		}),
		"inventory": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			inventory, err := env.inventory()
			if err != nil {
				return rc.Throw("%v", err)
			}
			type entry struct {
				Entity engine.Entity `json:"entity"`
				Name   string        `json:"name"`
			}
			entries := []entry{}
			for _, item := range inventory.Items() {
				entries = append(entries, entry{Entity: item, Name: itemName(env.manager, item)})
			}
			return jsonValue(rc, entries)
		}),
		"equipment": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			root, err := env.equipment()
			if err != nil {
				return rc.Throw("%v", err)
			}
			type entry struct {
				Slot engine.ComponentID `json:"slot"`
				Item engine.Entity      `json:"item"`
			}
			entries := []entry{}
			for _, slot := range root.AllSlots() {
				entries = append(entries, entry{Slot: slot.ID(), Item: slot.Item()})
			}
			return jsonValue(rc, entries)
		}),
		"level": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			experience, err := env.experience()
			if err != nil {
				return rc.Throw("%v", err)
			}
			return jsonValue(rc, map[string]any{
				"level":    experience.Level(),
				"value":    experience.Value(),
				"required": experience.RequiredForNextLevel(),
			})
		}),
		"factions": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			factions, err := joinNpcFactions(env)
			if err != nil {
				return rc.Throw("%v", err)
			}
			return rc.String(factions.String())
		}),
		"ftext": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 1 {
				return rc.Throw("ftext(text)")
			}
			if err := floatText(env, args[0].String()); err != nil {
				return rc.Throw("%v", err)
			}
			return nil
		}),
		"addai": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			ship, err := addAIShip(env)
			if err != nil {
				return rc.Throw("%v", err)
			}
			return jsonValue(rc, ship)
		}),
		"formation": withEnv(func(env *playerEnv, rc *script.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := info.Args()
			if len(args) != 1 {
				return rc.Throw("formation(name)")
			}
			if _, err := setFormation(env, args[0].String()); err != nil {
				return rc.Throw("%v", err)
			}
			return nil
		}),
	}
}
