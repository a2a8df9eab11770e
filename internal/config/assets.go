package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

//go:embed assets/datasources.json assets/graphs.json assets/data
var assets embed.FS

var validate = validator.New()

// DataFS returns the embedded sample data files served under /data.
func DataFS() fs.FS {
	sub, err := fs.Sub(assets, "assets/data")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}

// LoadDatasets reads the dataset configuration from path, or from the
// embedded default when path is empty.
func LoadDatasets(path string) (weather.Datasets, error) {
	raw, err := readAsset(path, "assets/datasources.json")
	if err != nil {
		return nil, err
	}

	var datasets weather.Datasets
	if err := json.Unmarshal(raw, &datasets); err != nil {
		return nil, fmt.Errorf("invalid dataset configuration: %w", err)
	}
	for id, desc := range datasets {
		if err := validate.Struct(desc); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", id, err)
		}
	}
	return datasets, nil
}

// LoadGraphs reads the graph descriptor list from path, or from the embedded
// default when path is empty. Every graph must reference a known dataset.
func LoadGraphs(path string, datasets weather.Datasets) ([]weather.GraphDescriptor, error) {
	raw, err := readAsset(path, "assets/graphs.json")
	if err != nil {
		return nil, err
	}

	var graphs []weather.GraphDescriptor
	if err := json.Unmarshal(raw, &graphs); err != nil {
		return nil, fmt.Errorf("invalid graph configuration: %w", err)
	}

	seen := make(map[string]bool, len(graphs))
	for i, g := range graphs {
		if err := validate.Struct(g); err != nil {
			return nil, fmt.Errorf("graph %d: %w", i, err)
		}
		if seen[g.Key] {
			return nil, fmt.Errorf("graph %d: duplicate key %q", i, g.Key)
		}
		seen[g.Key] = true
		if _, ok := datasets[g.Dataset]; !ok {
			return nil, fmt.Errorf("graph %s: %w: %s", g.Key, weather.ErrUnknownDataset, g.Dataset)
		}
	}
	return graphs, nil
}

func readAsset(path, embedded string) ([]byte, error) {
	if path == "" {
		return assets.ReadFile(embedded)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}
