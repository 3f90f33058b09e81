package fixture

import (
	"fmt"
	"slices"

	"github.com/Neumenon/rdl2/rdl"
)

// Diff lists every difference between the objects of want and the
// objects of the same name in got. Object references compare by name, so
// the two scenes may live in different contexts. Objects only in got are
// not reported.
func Diff(want, got *rdl.SceneContext) []string {
	var out []string
	for _, w := range want.SceneObjects() {
		g := got.LookupSceneObject(w.Name())
		if g == nil {
			out = append(out, fmt.Sprintf("%s: missing", w.Name()))
			continue
		}
		if g.ClassName() != w.ClassName() {
			out = append(out, fmt.Sprintf("%s: class %s, want %s", w.Name(), g.ClassName(), w.ClassName()))
			continue
		}
		out = append(out, diffObject(w, g)...)
	}
	return out
}

func diffObject(want, got *rdl.SceneObject) []string {
	var out []string
	for _, a := range want.SceneClass().Attributes() {
		name := a.Name()
		for _, ts := range []rdl.Timestep{rdl.TimestepBegin, rdl.TimestepEnd} {
			wv, _ := want.Get(name, ts)
			gv, _ := got.Get(name, ts)
			if !sameValue(wv, gv) {
				out = append(out, fmt.Sprintf("%s.%s[%s]: got %v, want %v", want.Name(), name, ts, gv, wv))
			}
		}
		if a.IsBindable() {
			wb, _ := want.Binding(name)
			gb, _ := got.Binding(name)
			if objectName(wb) != objectName(gb) {
				out = append(out, fmt.Sprintf("%s.%s binding: got %q, want %q",
					want.Name(), name, objectName(gb), objectName(wb)))
			}
		}
	}
	return out
}

func sameValue(a, b rdl.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	if a.Type().Category() != rdl.CategoryObject {
		return a.Equal(b)
	}
	return slices.EqualFunc(a.Objects(), b.Objects(), func(x, y *rdl.SceneObject) bool {
		return objectName(x) == objectName(y)
	})
}

func objectName(o *rdl.SceneObject) string {
	if o == nil {
		return ""
	}
	return o.Name()
}
