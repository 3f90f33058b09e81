package rdl

import (
	"fmt"
	"strings"
)

// Key addresses one attribute value: a name and, for blurrable
// attributes, an optional timestep.
type Key struct {
	Name        string
	Timestep    Timestep
	HasTimestep bool
}

func (k Key) timesteps() []Timestep {
	if k.HasTimestep {
		return []Timestep{k.Timestep}
	}
	return nil
}

func (k Key) String() string {
	if k.HasTimestep {
		return k.Name + ":" + k.Timestep.String()
	}
	return k.Name
}

// ParseKey builds a key from untyped parts: a name, optionally followed by
// a Timestep (or an int 0/1, or the strings "begin"/"end"). Any other
// arity or part type is an invalid key.
func ParseKey(parts ...any) (Key, error) {
	if len(parts) == 0 || len(parts) > 2 {
		return Key{}, fmt.Errorf("%w: expected 1 or 2 parts, got %d", ErrInvalidKey, len(parts))
	}
	name, ok := parts[0].(string)
	if !ok {
		return Key{}, fmt.Errorf("%w: attribute name must be a string, got %T", ErrInvalidKey, parts[0])
	}
	k := Key{Name: name}
	if len(parts) == 1 {
		return k, nil
	}
	var ts Timestep
	switch v := parts[1].(type) {
	case Timestep:
		ts = v
	case int:
		if v < 0 || v > int(TimestepEnd) {
			return Key{}, fmt.Errorf("%w: timestep %d out of range", ErrInvalidKey, v)
		}
		ts = Timestep(v)
	case string:
		switch strings.ToLower(v) {
		case "begin", "timestep_begin":
			ts = TimestepBegin
		case "end", "timestep_end":
			ts = TimestepEnd
		default:
			return Key{}, fmt.Errorf("%w: unknown timestep %q", ErrInvalidKey, v)
		}
	default:
		return Key{}, fmt.Errorf("%w: timestep must be a Timestep, got %T", ErrInvalidKey, parts[1])
	}
	if ts > TimestepEnd {
		return Key{}, fmt.Errorf("%w: timestep %d out of range", ErrInvalidKey, ts)
	}
	k.Timestep, k.HasTimestep = ts, true
	return k, nil
}

// GetKey is Get addressed by a Key.
func (o *SceneObject) GetKey(k Key) (Value, error) {
	return o.Get(k.Name, k.timesteps()...)
}

// SetKey is Set addressed by a Key.
func (o *SceneObject) SetKey(k Key, v Value) error {
	return o.Set(k.Name, v, k.timesteps()...)
}
