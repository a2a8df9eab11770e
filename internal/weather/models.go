package weather

import (
	"strconv"
	"strings"
	"time"
)

// Value is the raw text of a measurement as read from the source.
// It is kept as text so the rendering layer decides how to format it;
// use Float64 when a numeric value is needed.
type Value string

// Float64 coerces the value to a number.
func (v Value) Float64() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
}

// Sample is one time-stamped measurement of a dataset.
type Sample struct {
	Date  time.Time `json:"date"` // always UTC
	Value Value     `json:"value"`
}

// Row is one delimited-text record keyed by its header names.
type Row map[string]string

// Params is the provider configuration bag of a dataset. The resolver never
// looks inside it.
type Params map[string]string

// URL returns the location of the source file.
func (p Params) URL() string {
	return p["url"]
}

// Separator returns the field separator, "," when not configured.
func (p Params) Separator() string {
	if s := p["separator"]; s != "" {
		return s
	}
	return ","
}

// Transform returns the configured transform name, if any.
func (p Params) Transform() string {
	return p["transform"]
}

// DatasetDescriptor is the static configuration of one dataset.
type DatasetDescriptor struct {
	Provider      string `json:"provider" validate:"required"`
	Params        Params `json:"params"`
	Interpolation string `json:"interpolation,omitempty"`
}

// Datasets maps dataset ids to their descriptors.
type Datasets map[string]DatasetDescriptor

// GraphInfo holds the display information of a graph tab.
type GraphInfo struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	Color       string `json:"color"`
}

// GraphDescriptor drives the construction of one dashboard tab.
type GraphDescriptor struct {
	Key      string         `json:"key" validate:"required"`
	Category string         `json:"category" validate:"required"`
	Dataset  string         `json:"dataset" validate:"required"`
	Info     GraphInfo      `json:"info"`
	Config   map[string]any `json:"config,omitempty"`
}
