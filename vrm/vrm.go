package vrm

// https://vrm.dev/
// https://github.com/vrm-c/vrm-specification/blob/master/specification/0.0/README.ja.md

import (
	"encoding/json"

	"github.com/qmuntal/gltf"
)

const ExtensionName = "VRM"

func init() {
	gltf.RegisterExtension(ExtensionName, Unmarshal)
}

type Metadata struct {
	Title   string `json:"title"`
	Version string `json:"version"`
	Author  string `json:"author"`
}

// BlendShapeBind points at one morph target of a mesh. Weight is 0..100.
type BlendShapeBind struct {
	Mesh   int     `json:"mesh"`
	Index  int     `json:"index"`
	Weight float32 `json:"weight"`
}

// MaterialValueBind sets a material property toward TargetValue.
type MaterialValueBind struct {
	MaterialName string    `json:"materialName"`
	PropertyName string    `json:"propertyName"`
	TargetValue  []float32 `json:"targetValue"`
}

type BlendShapeGroup struct {
	Name           string               `json:"name"`
	PresetName     string               `json:"presetName"`
	Binds          []*BlendShapeBind    `json:"binds"`
	MaterialValues []*MaterialValueBind `json:"materialValues"`
	IsBinary       bool                 `json:"isBinary"`
}

type BlendShapeMaster struct {
	BlendShapeGroups []*BlendShapeGroup `json:"blendShapeGroups"`
}

type VRM struct {
	Meta             Metadata         `json:"meta"`
	BlendShapeMaster BlendShapeMaster `json:"blendShapeMaster"`
	ExporterVersion  string           `json:"exporterVersion"`
}

func Unmarshal(data []byte) (interface{}, error) {
	var vrmext VRM
	if err := json.Unmarshal(data, &vrmext); err != nil {
		return nil, err
	}
	return &vrmext, nil
}

// GroupName returns the name used for a blend shape group, falling back to
// the preset name.
func (g *BlendShapeGroup) GroupName() string {
	if g.Name != "" {
		return g.Name
	}
	return g.PresetName
}
