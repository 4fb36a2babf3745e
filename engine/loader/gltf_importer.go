package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter runs the parser and extractors to turn a glTF/GLB document into an ImportedModel.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts its skeleton and clips.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	Import(path string) (*model.ImportedModel, error)

	// ImportReader loads a glTF document from a reader and extracts its skeleton and clips.
	//
	// Parameters:
	//   - name: fallback model name
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	base := filepath.Base(path)
	return imp.importFromParser(parser, strings.TrimSuffix(base, filepath.Ext(base)))
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}

	return imp.importFromParser(parser, name)
}

// importFromParser extracts the skeleton of the document's primary skin and every clip that animates it.
// A document without skins imports as a static model with no clips.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackName: model name used when the default scene is unnamed
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (*model.ImportedModel, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	imported := &model.ImportedModel{Name: gltfModelName(doc, fallbackName)}

	skeletonExtractor := newGLTFSkeletonExtractor(parser)
	skinIndex := skeletonExtractor.FindSkin()
	if skinIndex < 0 {
		return imported, nil
	}

	skeleton, boneMapping, err := skeletonExtractor.ExtractSkeleton(skinIndex)
	if err != nil {
		return nil, fmt.Errorf("skeleton extraction failed: %w", err)
	}
	imported.Skeleton = skeleton

	imported.Animations, err = newGLTFAnimationExtractor(parser).ExtractAnimationsForSkeleton(boneMapping)
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}
	return imported, nil
}

// gltfModelName prefers the default scene's name over the fallback.
func gltfModelName(doc *gltfDocument, fallback string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return "unnamed_model"
}
