// gltf_types.go contains the subset of the glTF 2.0 JSON schema needed to import skeletons and clips.
// Meshes, materials, textures and cameras are ignored; encoding/json drops the unknown fields.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

// --- glTF Root Structure ---

// gltfDocument represents the root of a glTF JSON document.
type gltfDocument struct {
	// Asset contains metadata about the glTF asset.
	Asset gltfAsset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes are the node collections of the document.
	Scenes []gltfScene `json:"scenes,omitempty"`

	// Nodes are all nodes in the document. Joints are nodes referenced by a skin.
	Nodes []gltfNode `json:"nodes,omitempty"`

	// Accessors describe typed views into buffer views.
	Accessors []gltfAccessor `json:"accessors,omitempty"`

	// BufferViews are byte ranges of buffers.
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`

	// Buffers hold the raw binary payloads.
	Buffers []gltfBuffer `json:"buffers,omitempty"`

	// Skins bind joint node sets to skinned meshes.
	Skins []gltfSkin `json:"skins,omitempty"`

	// Animations are the keyframe clips of the document.
	Animations []gltfAnimation `json:"animations,omitempty"`
}

// gltfAsset holds the asset metadata. Version must start with "2.".
type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is a node of the scene hierarchy. Either Matrix or the TRS fields describe its local transform.
type gltfNode struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`

	// Mesh and Skin mark a skinned mesh instance.
	Mesh *int `json:"mesh,omitempty"`
	Skin *int `json:"skin,omitempty"`

	// Matrix is a column-major local transform.
	Matrix *[16]float32 `json:"matrix,omitempty"`

	Translation *[3]float32 `json:"translation,omitempty"`
	Rotation    *[4]float32 `json:"rotation,omitempty"`
	Scale       *[3]float32 `json:"scale,omitempty"`
}

// --- Buffer Data ---

type gltfAccessor struct {
	BufferView    *int   `json:"bufferView,omitempty"`
	ByteOffset    int    `json:"byteOffset,omitempty"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`

	// Sparse is only decoded so that sparse accessors can be rejected.
	Sparse *struct {
		Count int `json:"count"`
	} `json:"sparse,omitempty"`
}

// gltfComponentTypeFloat is the only component type read by the importer.
const gltfComponentTypeFloat = 5126

const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
)

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

// gltfBuffer is a binary payload, either external, a data URI, or the GLB BIN chunk.
type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data is filled by the parser after the document is decoded.
	Data []byte `json:"-"`
}

// --- Skeletal Animation ---

type gltfSkin struct {
	Name string `json:"name,omitempty"`

	// Joints are the node indices of the skeleton's bones.
	Joints []int `json:"joints"`
}

type gltfAnimation struct {
	Name     string                 `json:"name,omitempty"`
	Channels []gltfAnimationChannel `json:"channels"`
	Samplers []gltfAnimationSampler `json:"samplers"`
}

type gltfAnimationChannel struct {
	Sampler int                 `json:"sampler"`
	Target  gltfAnimationTarget `json:"target"`
}

type gltfAnimationTarget struct {
	// Node is nil for channels driven by extensions.
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

// gltfAnimationSampler pairs an input (time) accessor with an output (value) accessor.
type gltfAnimationSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

const (
	gltfInterpolationLinear      = "LINEAR"
	gltfInterpolationStep        = "STEP"
	gltfInterpolationCubicSpline = "CUBICSPLINE"
)

const (
	gltfAnimPathTranslation = "translation"
	gltfAnimPathRotation    = "rotation"
	gltfAnimPathScale       = "scale"
)

// --- GLB Binary Format ---

// gltfGLBHeader is the 12 byte header of a GLB file.
type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// gltfGLBChunkHeader precedes every GLB chunk.
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)
