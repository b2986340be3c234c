package vrm

import "github.com/qmuntal/gltf"

type Document gltf.Document

// VRM returns the VRM extension or nil.
func (doc *Document) VRM() *VRM {
	if ext, ok := doc.Extensions[ExtensionName].(*VRM); ok {
		return ext
	}
	return nil
}

func (doc *Document) IsExtentionUsed(extname string) bool {
	for _, ex := range doc.ExtensionsUsed {
		if ex == extname {
			return true
		}
	}
	return false
}

// FindMaterial returns the index of the material named name.
func (doc *Document) FindMaterial(name string) (int, bool) {
	for i, m := range doc.Materials {
		if m.Name == name {
			return i, true
		}
	}
	return -1, false
}
