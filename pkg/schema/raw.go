// Package schema normalizes raw server payloads into the canonical graph
// model. Payloads arrive in several historical generations (nested data
// groups vs flat columns, legacy parser lists vs the screen_state wrapper);
// everything downstream of Normalize sees one shape only.
package schema

import (
	"encoding/json"
	"fmt"
)

// RawGraph is the loosely-typed payload returned by GET /api/graph
type RawGraph struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges"`
}

// RawPosition mirrors the position object when the server sends one
type RawPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawNodeData is the nested data group emitted by newer servers
type RawNodeData struct {
	Label               string          `json:"label"`
	Description         string          `json:"description"`
	Screenshot          string          `json:"screenshot"`
	AnnotatedScreenshot string          `json:"annotatedScreenshot"`
	Traffic             []RawTraffic    `json:"traffic"`
	Parser              json.RawMessage `json:"parser"`
}

// RawNode accepts both the nested (data.*) and the flat (column-per-field)
// node generations. Nested fields win when both are present.
type RawNode struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position *RawPosition `json:"position"`
	Data     *RawNodeData `json:"data"`

	// Flat fallbacks from the older generation
	Label                   string          `json:"label"`
	Description             string          `json:"description"`
	Screenshot              string          `json:"screenshot"`
	ScreenshotPath          string          `json:"screenshot_path"`
	AnnotatedScreenshot     string          `json:"annotatedScreenshot"`
	AnnotatedScreenshotPath string          `json:"annotated_screenshot_path"`
	Traffic                 []RawTraffic    `json:"traffic"`
	Parser                  json.RawMessage `json:"parser"`
}

// RawEdge accepts either source/target or source_node_id/target_node_id
type RawEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceNodeID string `json:"source_node_id"`
	Target       string `json:"target"`
	TargetNodeID string `json:"target_node_id"`
	Label        string `json:"label"`
	Animated     *bool  `json:"animated"`
}

// RawTraffic is one request record; status arrives as "status" in the
// nested generation and "status_code" in the flat one.
type RawTraffic struct {
	ID              any    `json:"id"`
	Method          string `json:"method"`
	URL             string `json:"url"`
	Status          *int   `json:"status"`
	StatusCode      *int   `json:"status_code"`
	Duration        string `json:"duration"`
	CapturedAt      string `json:"capturedAt"`
	CapturedAtSnake string `json:"captured_at"`
}

// rawParserWrapper covers the keyed parser generations: the traffic_mapper
// output ({parsedContentList, labelCoordinates}), the hybrid merger output
// ({screen_state, elements}) and the canonical re-encoded form.
type rawParserWrapper struct {
	ParsedContentList []rawElement         `json:"parsedContentList"`
	LabelCoordinates  map[string][]float64 `json:"labelCoordinates"`
	ScreenState       *rawScreenState      `json:"screen_state"`
	ScreenStateCamel  *rawScreenState      `json:"screenState"`
	Elements          []rawElement         `json:"elements"`
}

type rawScreenState struct {
	CanScrollVertical      bool        `json:"can_scroll_vertical"`
	CanScrollVerticalCamel *bool       `json:"canScrollVertical"`
	ScrollableAreas        [][]float64 `json:"scrollable_areas"`
	ScrollableAreasCamel   [][]float64 `json:"scrollableAreas"`
}

// rawElement accepts the flat vision shape ({type, content/text, bbox,
// interactivity}) and the enriched shape carrying nested status or
// adb_attributes groups.
type rawElement struct {
	Content       string          `json:"content"`
	Text          string          `json:"text"`
	Type          string          `json:"type"`
	Interactive   *bool           `json:"interactive"`
	Interactivity *bool           `json:"interactivity"`
	BBox          []float64       `json:"bbox"`
	Bounds        []float64       `json:"bounds"`
	Status        *rawElementFlags `json:"status"`
	ADBAttributes *rawElementFlags `json:"adb_attributes"`
}

type rawElementFlags struct {
	Clickable  bool `json:"clickable"`
	Editable   bool `json:"editable"`
	Scrollable bool `json:"scrollable"`
}

// ParseGraph decodes a raw /api/graph response body
func ParseGraph(data []byte) (*RawGraph, error) {
	var raw RawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode graph payload: %w", err)
	}
	return &raw, nil
}
