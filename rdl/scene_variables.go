package rdl

import (
	"math"
	"os"
)

// SceneVariables holds the render-wide settings of a context. Every
// context has exactly one.
type SceneVariables struct{ *SceneObject }

func (v *SceneVariables) ImageWidth() int32 { return v.intAttr("image_width") }

func (v *SceneVariables) ImageHeight() int32 { return v.intAttr("image_height") }

// Res is the resolution divisor applied to the image size.
func (v *SceneVariables) Res() float32 { return v.floatAttr("res") }

// RezedWidth is the image width divided by Res, at least 1.
func (v *SceneVariables) RezedWidth() int32 { return rezed(v.ImageWidth(), v.Res()) }

// RezedHeight is the image height divided by Res, at least 1.
func (v *SceneVariables) RezedHeight() int32 { return rezed(v.ImageHeight(), v.Res()) }

func rezed(size int32, res float32) int32 {
	if res <= 0 {
		return max(size, 1)
	}
	return max(int32(math.Floor(float64(size)/float64(res))), 1)
}

func (v *SceneVariables) Frame() float32 { return v.floatAttr("frame") }

func (v *SceneVariables) Fps() float32 { return v.floatAttr("fps") }

func (v *SceneVariables) SlerpXforms() bool { return v.boolAttr("slerp_xforms") }

func (v *SceneVariables) OutputFile() string { return v.stringAttr("output_file") }

func (v *SceneVariables) FatalColor() Rgb {
	c, _ := v.GetRgb("fatal_color")
	return c
}

func (v *SceneVariables) PixelSamples() int32 { return v.intAttr("pixel_samples") }

func (v *SceneVariables) MachineID() int32 { return v.intAttr("machine_id") }

func (v *SceneVariables) NumMachines() int32 { return v.intAttr("num_machines") }

// MotionSteps returns the shutter sample offsets.
func (v *SceneVariables) MotionSteps() []float32 {
	val, _ := v.Get("motion_steps")
	fs, _ := val.AsFloatVector()
	return fs
}

// TmpDir is tmp_dir when set, otherwise $TMPDIR, otherwise /tmp.
func (v *SceneVariables) TmpDir() string {
	if dir := v.stringAttr("tmp_dir"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func (v *SceneVariables) Camera() *Camera {
	c, _ := v.objectAttr("camera").AsCamera()
	return c
}

func (v *SceneVariables) DicingCamera() *Camera {
	c, _ := v.objectAttr("dicing_camera").AsCamera()
	return c
}

func (v *SceneVariables) Layer() *Layer {
	l, _ := v.objectAttr("layer").AsLayer()
	return l
}

func (v *SceneVariables) ExrHeaderAttributes() *Metadata {
	m, _ := v.objectAttr("exr_header_attributes").AsMetadata()
	return m
}
