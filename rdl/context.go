package rdl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// ClassSource supplies class schemas from a schema source location, such
// as a directory of class definition files.
type ClassSource interface {
	LoadClasses(ctx context.Context, dsoPath string) ([]*SceneClass, error)
}

// ContextOption configures a SceneContext.
type ContextOption func(*SceneContext)

// WithRegistry makes the context use r instead of a private registry.
func WithRegistry(r *Registry) ContextOption {
	return func(sc *SceneContext) { sc.registry = r }
}

// WithClassSource sets the source LoadAllSceneClasses reads from.
func WithClassSource(src ClassSource) ContextOption {
	return func(sc *SceneContext) { sc.source = src }
}

// WithLogger sets the logger; nil means slog.Default().
func WithLogger(l *slog.Logger) ContextOption {
	return func(sc *SceneContext) { sc.logger = l }
}

// WithDsoPath sets the schema source path.
func WithDsoPath(path string) ContextOption {
	return func(sc *SceneContext) { sc.dsoPath = path }
}

// WithProxyMode enables proxy mode.
func WithProxyMode(enabled bool) ContextOption {
	return func(sc *SceneContext) { sc.proxyMode = enabled }
}

// SceneContext is the object store: it owns every SceneObject, the
// classes instantiated in it, and the scene variables.
type SceneContext struct {
	registry     *Registry
	source       ClassSource
	logger       *slog.Logger
	dsoPath      string
	proxyMode    bool
	classes      map[string]*SceneClass
	classOrder   []string
	objects      map[string]*SceneObject
	order        []*SceneObject
	sceneVars    *SceneObject
	render2world *Mat4d
	dsoCounts    map[string]int
}

// NewSceneContext returns a context holding only the scene variables.
func NewSceneContext(opts ...ContextOption) *SceneContext {
	sc := &SceneContext{
		classes:   make(map[string]*SceneClass),
		objects:   make(map[string]*SceneObject),
		dsoCounts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.registry == nil {
		sc.registry = NewRegistry()
	}
	if sc.logger == nil {
		sc.logger = slog.Default()
	}
	sv, err := sc.CreateSceneObject(ClassSceneVariables, SceneVariablesName)
	if err != nil {
		panic(fmt.Sprintf("rdl: registry lacks %s: %v", ClassSceneVariables, err))
	}
	sc.sceneVars = sv
	return sc
}

func (sc *SceneContext) Registry() *Registry { return sc.registry }

func (sc *SceneContext) Logger() *slog.Logger { return sc.logger }

func (sc *SceneContext) DsoPath() string { return sc.dsoPath }

func (sc *SceneContext) SetDsoPath(path string) { sc.dsoPath = path }

func (sc *SceneContext) ProxyModeEnabled() bool { return sc.proxyMode }

func (sc *SceneContext) SetProxyModeEnabled(b bool) { sc.proxyMode = b }

// ============================================================
// Classes
// ============================================================

// CreateSceneClass makes a registered class available in this context.
// Creating a class twice returns the existing one.
func (sc *SceneContext) CreateSceneClass(name string) (*SceneClass, error) {
	if c, ok := sc.classes[name]; ok {
		return c, nil
	}
	c, ok := sc.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown scene class %q", ErrSchema, name)
	}
	sc.classes[name] = c
	sc.classOrder = append(sc.classOrder, name)
	return c, nil
}

// SceneClass returns a class created in this context.
func (sc *SceneContext) SceneClass(name string) (*SceneClass, error) {
	if c, ok := sc.classes[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: scene class %q not created", ErrSchema, name)
}

// SceneClassExists reports whether the class was created in this context.
func (sc *SceneContext) SceneClassExists(name string) bool {
	_, ok := sc.classes[name]
	return ok
}

// SceneClasses returns the created classes in creation order.
func (sc *SceneContext) SceneClasses() []*SceneClass {
	out := make([]*SceneClass, 0, len(sc.classOrder))
	for _, name := range sc.classOrder {
		out = append(out, sc.classes[name])
	}
	return out
}

// LoadAllSceneClasses pulls every class from the class source at the dso
// path into the registry and creates them in this context. Classes
// already registered under the same name and layout are reused.
func (sc *SceneContext) LoadAllSceneClasses(ctx context.Context) error {
	if sc.source == nil {
		return fmt.Errorf("%w: no class source configured", ErrSchema)
	}
	if sc.dsoPath == "" {
		return fmt.Errorf("%w: dso path not set", ErrSchema)
	}
	classes, err := sc.source.LoadClasses(ctx, sc.dsoPath)
	if err != nil {
		return err
	}
	for _, c := range classes {
		if existing, ok := sc.registry.Lookup(c.Name()); ok {
			if existing.Hash() != c.Hash() {
				return fmt.Errorf("%w: class %s from %s conflicts with %s",
					ErrSchema, c.Name(), c.SourcePath(), existing.SourcePath())
			}
		} else if err := sc.registry.Register(c); err != nil {
			return err
		}
		if _, err := sc.CreateSceneClass(c.Name()); err != nil {
			return err
		}
		sc.dsoCounts[c.SourcePath()]++
	}
	sc.logger.Info("loaded scene classes",
		slog.String("dso_path", sc.dsoPath),
		slog.Int("count", len(classes)),
		slog.Bool("proxy_mode", sc.proxyMode))
	return nil
}

// DsoCounts returns how many classes were loaded from each source path.
func (sc *SceneContext) DsoCounts() map[string]int {
	out := make(map[string]int, len(sc.dsoCounts))
	for k, v := range sc.dsoCounts {
		out[k] = v
	}
	return out
}

// ============================================================
// Objects
// ============================================================

// CreateSceneObject creates an object of a registered class. The class is
// created on demand. A used name is ErrDuplicateObjectName.
func (sc *SceneContext) CreateSceneObject(className, name string) (*SceneObject, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty object name", ErrSchema)
	}
	if _, dup := sc.objects[name]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateObjectName, name)
	}
	c, err := sc.CreateSceneClass(className)
	if err != nil {
		return nil, err
	}
	o := newSceneObject(sc, c, name)
	sc.objects[name] = o
	sc.order = append(sc.order, o)
	return o, nil
}

// GetOrCreateSceneObject returns the named object if it exists with the
// given class, and creates it otherwise. An existing object of another
// class is a type mismatch. Readers use this so documents can update
// objects already in the store.
func (sc *SceneContext) GetOrCreateSceneObject(className, name string) (*SceneObject, error) {
	if o, ok := sc.objects[name]; ok {
		if o.class.name != className {
			return nil, fmt.Errorf("%w: %q is a %s, not a %s", ErrTypeMismatch, name, o.class.name, className)
		}
		return o, nil
	}
	return sc.CreateSceneObject(className, name)
}

// SceneObject returns the named object.
func (sc *SceneContext) SceneObject(name string) (*SceneObject, error) {
	if o, ok := sc.objects[name]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
}

// LookupSceneObject returns the named object, or nil.
func (sc *SceneContext) LookupSceneObject(name string) *SceneObject {
	return sc.objects[name]
}

// SceneObjectExists reports whether the name is in use.
func (sc *SceneContext) SceneObjectExists(name string) bool {
	_, ok := sc.objects[name]
	return ok
}

// SceneObjects returns every object in creation order.
func (sc *SceneContext) SceneObjects() []*SceneObject {
	return slices.Clone(sc.order)
}

// SceneObjectsOf returns the objects providing iface, in creation order.
func (sc *SceneContext) SceneObjectsOf(iface Interface) []*SceneObject {
	var out []*SceneObject
	for _, o := range sc.order {
		if o.IsA(iface) {
			out = append(out, o)
		}
	}
	return out
}

// RemoveSceneObject destroys an object. References to it from other
// objects become null, so assignment ids elsewhere stay stable.
func (sc *SceneContext) RemoveSceneObject(name string) error {
	o, ok := sc.objects[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	if o == sc.sceneVars {
		return fmt.Errorf("%w: the scene variables cannot be removed", ErrSchema)
	}
	delete(sc.objects, name)
	sc.order = slices.DeleteFunc(sc.order, func(x *SceneObject) bool { return x == o })
	for _, other := range sc.order {
		other.dropReferences(o)
	}
	sc.logger.Debug("removed scene object", slog.String("object", name))
	return nil
}

func (o *SceneObject) dropReferences(target *SceneObject) {
	for i := range o.slots {
		s := &o.slots[i]
		hit := false
		for ts := range s.values {
			for j, ref := range s.values[ts].objs {
				if ref == target {
					s.values[ts].objs[j] = nil
					hit = true
				}
			}
		}
		if s.binding == target {
			s.binding = nil
			s.bindingChanged = true
			hit = true
		}
		if hit {
			s.changed = true
			o.touch()
		}
	}
}

// CommitAllChanges commits every object.
func (sc *SceneContext) CommitAllChanges() {
	for _, o := range sc.order {
		o.CommitChanges()
	}
}

// ============================================================
// Scene-wide state
// ============================================================

// SceneVariables returns the context's scene variables. They always
// exist.
func (sc *SceneContext) SceneVariables() *SceneVariables {
	return &SceneVariables{sc.sceneVars}
}

// Cameras returns every camera in creation order.
func (sc *SceneContext) Cameras() []*Camera {
	var out []*Camera
	for _, o := range sc.SceneObjectsOf(InterfaceCamera) {
		out = append(out, &Camera{Node{o}})
	}
	return out
}

// PrimaryCamera is the camera named by the scene variables, or else the
// first camera created. It is nil when there are no cameras.
func (sc *SceneContext) PrimaryCamera() *Camera {
	if cam, ok := sc.sceneVars.objectAttr("camera").AsCamera(); ok {
		return cam
	}
	cams := sc.Cameras()
	if len(cams) == 0 {
		return nil
	}
	return cams[0]
}

// DicingCamera is the scene variables' dicing camera, or the primary one.
func (sc *SceneContext) DicingCamera() *Camera {
	if cam, ok := sc.sceneVars.objectAttr("dicing_camera").AsCamera(); ok {
		return cam
	}
	return sc.PrimaryCamera()
}

// ActiveCameras returns the primary camera followed by every other camera
// an active render output renders through.
func (sc *SceneContext) ActiveCameras() []*Camera {
	var out []*Camera
	seen := make(map[*SceneObject]bool)
	add := func(c *Camera) {
		if c != nil && !seen[c.SceneObject] {
			seen[c.SceneObject] = true
			out = append(out, c)
		}
	}
	add(sc.PrimaryCamera())
	for _, o := range sc.SceneObjectsOf(InterfaceRenderOutput) {
		ro := &RenderOutput{o}
		if ro.Active() {
			add(ro.Camera())
		}
	}
	return out
}

// Render2World returns the render-space to world-space transform. Until
// set it is the identity.
func (sc *SceneContext) Render2World() Mat4d {
	if sc.render2world == nil {
		return Mat4dIdentity()
	}
	return *sc.render2world
}

func (sc *SceneContext) SetRender2World(m Mat4d) {
	sc.render2world = &m
}

func (sc *SceneContext) CheckpointActive() bool { return sc.sceneVars.boolAttr("checkpoint_active") }
func (sc *SceneContext) ResumableOutput() bool  { return sc.sceneVars.boolAttr("resumable_output") }
func (sc *SceneContext) ResumeRender() bool     { return sc.sceneVars.boolAttr("resume_render") }

func (sc *SceneContext) SetCheckpointActive(b bool) error {
	return sc.sceneVars.Set("checkpoint_active", BoolValue(b))
}

func (sc *SceneContext) SetResumableOutput(b bool) error {
	return sc.sceneVars.Set("resumable_output", BoolValue(b))
}

func (sc *SceneContext) SetResumeRender(b bool) error {
	return sc.sceneVars.Set("resume_render", BoolValue(b))
}
