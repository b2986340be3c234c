package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/binzume/mmdmorph/converter"
	"github.com/binzume/mmdmorph/logger"
	"github.com/binzume/mmdmorph/mmd"
	"github.com/binzume/mmdmorph/preview"
	"go.uber.org/zap"
)

func isMMD(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pmx" || ext == ".pmd"
}

// loadModel returns the model and, for PMX/PMD input, the source document.
func loadModel(input string) (*converter.Model, *mmd.Document, error) {
	if isMMD(input) {
		r, err := os.Open(input)
		if err != nil {
			return nil, nil, err
		}
		defer r.Close()
		doc, err := mmd.Parse(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", input, err)
		}
		logger.Info("model loaded", zap.String("name", doc.Name), zap.String("comment", doc.Comment))
		return converter.MMDToMorph(doc), doc, nil
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".glb", ".gltf", ".vrm":
		model, err := converter.LoadGLTF(input)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", input, err)
		}
		return model, nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported input type: %v", filepath.Ext(input))
}

func loadAnimation(path string) (*mmd.Animation, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return mmd.NewVMDParser(r).Parse()
}

// parseWeights parses "name=weight,name2=weight2".
func parseWeights(s string) (map[string]float32, error) {
	weights := map[string]float32{}
	if strings.TrimSpace(s) == "" {
		return weights, nil
	}
	for _, item := range strings.Split(s, ",") {
		i := strings.LastIndex(item, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid morph weight: %q", item)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(item[i+1:]), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid morph weight: %q", item)
		}
		weights[strings.TrimSpace(item[:i])] = float32(w)
	}
	return weights, nil
}

// previewFormat picks the image format: an explicit -format wins, then the
// output extension, then the configured default.
func previewFormat(output string, explicit bool, configured string) string {
	if explicit {
		return configured
	}
	if f := preview.FormatFromPath(output); f != "" {
		return f
	}
	return configured
}

func savePMX(doc *mmd.Document, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mmd.WritePMX(doc, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
