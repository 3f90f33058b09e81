package rdl

import "fmt"

// Every capability has two downcasts: AsX reports failure with ok=false,
// ToX with an ErrTypeMismatch error. Readers that probe optional
// relationships use AsX; code that requires the capability uses ToX.

func viewOf[V any](o *SceneObject, bit Interface, mk func(*SceneObject) *V) (*V, bool) {
	if o == nil || !o.IsA(bit) {
		return nil, false
	}
	return mk(o), true
}

func castError(o *SceneObject, bit Interface) error {
	if o == nil {
		return fmt.Errorf("%w: cannot cast null object to %s", ErrTypeMismatch, bit)
	}
	return fmt.Errorf("%w: cannot cast %s %q to %s", ErrTypeMismatch, o.class.name, o.name, bit)
}

func (o *SceneObject) AsNode() (*Node, bool) {
	return viewOf(o, InterfaceNode, func(o *SceneObject) *Node { return &Node{o} })
}

func (o *SceneObject) ToNode() (*Node, error) {
	if v, ok := o.AsNode(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceNode)
}

func (o *SceneObject) AsCamera() (*Camera, bool) {
	return viewOf(o, InterfaceCamera, func(o *SceneObject) *Camera { return &Camera{Node{o}} })
}

func (o *SceneObject) ToCamera() (*Camera, error) {
	if v, ok := o.AsCamera(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceCamera)
}

func (o *SceneObject) AsEnvMap() (*EnvMap, bool) {
	return viewOf(o, InterfaceEnvMap, func(o *SceneObject) *EnvMap { return &EnvMap{Node{o}} })
}

func (o *SceneObject) ToEnvMap() (*EnvMap, error) {
	if v, ok := o.AsEnvMap(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceEnvMap)
}

func (o *SceneObject) AsGeometry() (*Geometry, bool) {
	return viewOf(o, InterfaceGeometry, func(o *SceneObject) *Geometry { return &Geometry{Node{o}} })
}

func (o *SceneObject) ToGeometry() (*Geometry, error) {
	if v, ok := o.AsGeometry(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceGeometry)
}

func (o *SceneObject) AsLight() (*Light, bool) {
	return viewOf(o, InterfaceLight, func(o *SceneObject) *Light { return &Light{Node{o}} })
}

func (o *SceneObject) ToLight() (*Light, error) {
	if v, ok := o.AsLight(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceLight)
}

func (o *SceneObject) AsJoint() (*Joint, bool) {
	return viewOf(o, InterfaceJoint, func(o *SceneObject) *Joint { return &Joint{Node{o}} })
}

func (o *SceneObject) ToJoint() (*Joint, error) {
	if v, ok := o.AsJoint(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceJoint)
}

func (o *SceneObject) AsShader() (*Shader, bool) {
	return viewOf(o, InterfaceShader, func(o *SceneObject) *Shader { return &Shader{o} })
}

func (o *SceneObject) ToShader() (*Shader, error) {
	if v, ok := o.AsShader(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceShader)
}

func (o *SceneObject) AsRootShader() (*RootShader, bool) {
	return viewOf(o, InterfaceRootShader, func(o *SceneObject) *RootShader { return &RootShader{Shader{o}} })
}

func (o *SceneObject) ToRootShader() (*RootShader, error) {
	if v, ok := o.AsRootShader(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceRootShader)
}

func (o *SceneObject) AsMaterial() (*Material, bool) {
	return viewOf(o, InterfaceMaterial, func(o *SceneObject) *Material { return &Material{RootShader{Shader{o}}} })
}

func (o *SceneObject) ToMaterial() (*Material, error) {
	if v, ok := o.AsMaterial(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceMaterial)
}

func (o *SceneObject) AsDisplacement() (*Displacement, bool) {
	return viewOf(o, InterfaceDisplacement, func(o *SceneObject) *Displacement { return &Displacement{RootShader{Shader{o}}} })
}

func (o *SceneObject) ToDisplacement() (*Displacement, error) {
	if v, ok := o.AsDisplacement(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceDisplacement)
}

func (o *SceneObject) AsVolumeShader() (*VolumeShader, bool) {
	return viewOf(o, InterfaceVolumeShader, func(o *SceneObject) *VolumeShader { return &VolumeShader{RootShader{Shader{o}}} })
}

func (o *SceneObject) ToVolumeShader() (*VolumeShader, error) {
	if v, ok := o.AsVolumeShader(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceVolumeShader)
}

func (o *SceneObject) AsMap() (*Map, bool) {
	return viewOf(o, InterfaceMap, func(o *SceneObject) *Map { return &Map{Shader{o}} })
}

func (o *SceneObject) ToMap() (*Map, error) {
	if v, ok := o.AsMap(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceMap)
}

func (o *SceneObject) AsNormalMap() (*NormalMap, bool) {
	return viewOf(o, InterfaceNormalMap, func(o *SceneObject) *NormalMap { return &NormalMap{Shader{o}} })
}

func (o *SceneObject) ToNormalMap() (*NormalMap, error) {
	if v, ok := o.AsNormalMap(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceNormalMap)
}

func (o *SceneObject) AsLightFilter() (*LightFilter, bool) {
	return viewOf(o, InterfaceLightFilter, func(o *SceneObject) *LightFilter { return &LightFilter{o} })
}

func (o *SceneObject) ToLightFilter() (*LightFilter, error) {
	if v, ok := o.AsLightFilter(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceLightFilter)
}

func (o *SceneObject) AsDisplayFilter() (*DisplayFilter, bool) {
	return viewOf(o, InterfaceDisplayFilter, func(o *SceneObject) *DisplayFilter { return &DisplayFilter{o} })
}

func (o *SceneObject) ToDisplayFilter() (*DisplayFilter, error) {
	if v, ok := o.AsDisplayFilter(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceDisplayFilter)
}

func (o *SceneObject) AsGeometrySet() (*GeometrySet, bool) {
	return viewOf(o, InterfaceGeometrySet, func(o *SceneObject) *GeometrySet { return &GeometrySet{o} })
}

func (o *SceneObject) ToGeometrySet() (*GeometrySet, error) {
	if v, ok := o.AsGeometrySet(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceGeometrySet)
}

func (o *SceneObject) AsShadowReceiverSet() (*ShadowReceiverSet, bool) {
	return viewOf(o, InterfaceShadowReceiverSet, func(o *SceneObject) *ShadowReceiverSet { return &ShadowReceiverSet{GeometrySet{o}} })
}

func (o *SceneObject) ToShadowReceiverSet() (*ShadowReceiverSet, error) {
	if v, ok := o.AsShadowReceiverSet(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceShadowReceiverSet)
}

func (o *SceneObject) AsLightSet() (*LightSet, bool) {
	return viewOf(o, InterfaceLightSet, func(o *SceneObject) *LightSet { return &LightSet{o} })
}

func (o *SceneObject) ToLightSet() (*LightSet, error) {
	if v, ok := o.AsLightSet(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceLightSet)
}

func (o *SceneObject) AsShadowSet() (*ShadowSet, bool) {
	return viewOf(o, InterfaceShadowSet, func(o *SceneObject) *ShadowSet { return &ShadowSet{LightSet{o}} })
}

func (o *SceneObject) ToShadowSet() (*ShadowSet, error) {
	if v, ok := o.AsShadowSet(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceShadowSet)
}

func (o *SceneObject) AsLightFilterSet() (*LightFilterSet, bool) {
	return viewOf(o, InterfaceLightFilterSet, func(o *SceneObject) *LightFilterSet { return &LightFilterSet{o} })
}

func (o *SceneObject) ToLightFilterSet() (*LightFilterSet, error) {
	if v, ok := o.AsLightFilterSet(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceLightFilterSet)
}

func (o *SceneObject) AsTraceSet() (*TraceSet, bool) {
	return viewOf(o, InterfaceTraceSet, func(o *SceneObject) *TraceSet { return &TraceSet{o} })
}

func (o *SceneObject) ToTraceSet() (*TraceSet, error) {
	if v, ok := o.AsTraceSet(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceTraceSet)
}

func (o *SceneObject) AsLayer() (*Layer, bool) {
	return viewOf(o, InterfaceLayer, func(o *SceneObject) *Layer { return &Layer{TraceSet{o}} })
}

func (o *SceneObject) ToLayer() (*Layer, error) {
	if v, ok := o.AsLayer(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceLayer)
}

func (o *SceneObject) AsUserData() (*UserData, bool) {
	return viewOf(o, InterfaceUserData, func(o *SceneObject) *UserData { return &UserData{o} })
}

func (o *SceneObject) ToUserData() (*UserData, error) {
	if v, ok := o.AsUserData(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceUserData)
}

func (o *SceneObject) AsMetadata() (*Metadata, bool) {
	return viewOf(o, InterfaceMetadata, func(o *SceneObject) *Metadata { return &Metadata{o} })
}

func (o *SceneObject) ToMetadata() (*Metadata, error) {
	if v, ok := o.AsMetadata(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceMetadata)
}

func (o *SceneObject) AsRenderOutput() (*RenderOutput, bool) {
	return viewOf(o, InterfaceRenderOutput, func(o *SceneObject) *RenderOutput { return &RenderOutput{o} })
}

func (o *SceneObject) ToRenderOutput() (*RenderOutput, error) {
	if v, ok := o.AsRenderOutput(); ok {
		return v, nil
	}
	return nil, castError(o, InterfaceRenderOutput)
}

// AsSceneVariables succeeds only for a context's scene variables.
func (o *SceneObject) AsSceneVariables() (*SceneVariables, bool) {
	if o == nil || o.class.name != ClassSceneVariables {
		return nil, false
	}
	return &SceneVariables{o}, true
}

func (o *SceneObject) ToSceneVariables() (*SceneVariables, error) {
	if v, ok := o.AsSceneVariables(); ok {
		return v, nil
	}
	if o == nil {
		return nil, fmt.Errorf("%w: cannot cast null object to SceneVariables", ErrTypeMismatch)
	}
	return nil, fmt.Errorf("%w: cannot cast %s %q to SceneVariables", ErrTypeMismatch, o.class.name, o.name)
}
