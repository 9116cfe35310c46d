package schema

import (
	"encoding/json"
	"fmt"

	"github.com/explomap/explomap/pkg/graph"
)

// DefaultLabel is used when no label field resolves for a node
const DefaultLabel = "Untitled screen"

// Result carries the canonical graph plus counts of records the normalizer
// had to discard. Callers decide whether the counts are worth logging.
type Result struct {
	Graph          *graph.Graph
	DuplicateNodes int
	DanglingEdges  int
}

// Normalize maps a raw payload into the canonical graph. It is pure and
// idempotent: normalizing an already-canonical payload yields the same
// graph.
//
// Policy decisions (both tested): duplicate node ids are deduplicated
// first-occurrence-wins; edges referencing a node id absent from the node
// set are dropped.
func Normalize(raw *RawGraph) *Result {
	res := &Result{Graph: graph.NewGraph()}
	if raw == nil {
		return res
	}

	for i := range raw.Nodes {
		n := normalizeNode(&raw.Nodes[i])
		if n.ID == "" {
			continue
		}
		if !res.Graph.AddNode(n) {
			res.DuplicateNodes++
		}
	}

	for i := range raw.Edges {
		e := normalizeEdge(&raw.Edges[i])
		if e.Source == "" || e.Target == "" {
			res.DanglingEdges++
			continue
		}
		_, srcOK := res.Graph.Nodes[e.Source]
		_, dstOK := res.Graph.Nodes[e.Target]
		if !srcOK || !dstOK {
			res.DanglingEdges++
			continue
		}
		res.Graph.Edges = append(res.Graph.Edges, e)
	}

	return res
}

func normalizeNode(raw *RawNode) *graph.Node {
	n := &graph.Node{
		ID:    raw.ID,
		Label: DefaultLabel,
	}
	if raw.Position != nil {
		n.Position = graph.Position{X: raw.Position.X, Y: raw.Position.Y}
	}

	// Nested data group wins over flat columns
	label := firstNonEmpty(nestedLabel(raw), raw.Label)
	if label != "" {
		n.Label = label
	}
	n.Description = firstNonEmpty(nestedDescription(raw), raw.Description)
	n.Screenshot = firstNonEmpty(nestedScreenshot(raw), raw.Screenshot, raw.ScreenshotPath)
	n.AnnotatedScreenshot = firstNonEmpty(nestedAnnotated(raw), raw.AnnotatedScreenshot, raw.AnnotatedScreenshotPath)

	traffic := raw.Traffic
	if raw.Data != nil && raw.Data.Traffic != nil {
		traffic = raw.Data.Traffic
	}
	n.Traffic = normalizeTraffic(traffic)

	parserRaw := raw.Parser
	if raw.Data != nil && len(raw.Data.Parser) > 0 {
		parserRaw = raw.Data.Parser
	}
	n.Parser = normalizeParser(parserRaw)

	return n
}

func normalizeEdge(raw *RawEdge) graph.Edge {
	e := graph.Edge{
		ID:       raw.ID,
		Source:   firstNonEmpty(raw.Source, raw.SourceNodeID),
		Target:   firstNonEmpty(raw.Target, raw.TargetNodeID),
		Label:    raw.Label,
		Animated: true,
	}
	if raw.Animated != nil {
		e.Animated = *raw.Animated
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s-%s", e.Source, e.Target)
	}
	return e
}

func normalizeTraffic(raw []RawTraffic) []graph.RequestRecord {
	if len(raw) == 0 {
		return nil
	}
	out := make([]graph.RequestRecord, 0, len(raw))
	for _, t := range raw {
		rec := graph.RequestRecord{
			ID:         stringify(t.ID),
			Method:     t.Method,
			URL:        t.URL,
			Duration:   t.Duration,
			CapturedAt: firstNonEmpty(t.CapturedAt, t.CapturedAtSnake),
		}
		if t.Status != nil {
			rec.Status = *t.Status
		} else if t.StatusCode != nil {
			rec.Status = *t.StatusCode
		}
		out = append(out, rec)
	}
	return out
}

// normalizeParser resolves the historical parser shapes: a bare element
// list, the {parsedContentList, labelCoordinates} wrapper, and the
// {screen_state, elements} wrapper. Unparseable payloads yield nil.
func normalizeParser(raw json.RawMessage) *graph.ParserResult {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	// Legacy generation: a bare JSON array of elements
	var bare []rawElement
	if err := json.Unmarshal(raw, &bare); err == nil {
		return &graph.ParserResult{Elements: normalizeElements(bare)}
	}

	var wrapper rawParserWrapper
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}

	res := &graph.ParserResult{
		LabelCoordinates: wrapper.LabelCoordinates,
	}
	switch {
	case wrapper.Elements != nil:
		res.Elements = normalizeElements(wrapper.Elements)
	case wrapper.ParsedContentList != nil:
		res.Elements = normalizeElements(wrapper.ParsedContentList)
	default:
		res.Elements = []graph.ScreenElement{}
	}

	state := wrapper.ScreenState
	if state == nil {
		state = wrapper.ScreenStateCamel
	}
	if state != nil {
		canScroll := state.CanScrollVertical
		if state.CanScrollVerticalCamel != nil {
			canScroll = *state.CanScrollVerticalCamel
		}
		areas := state.ScrollableAreas
		if areas == nil {
			areas = state.ScrollableAreasCamel
		}
		res.ScreenState = &graph.ScreenState{
			CanScrollVertical: canScroll,
			ScrollableAreas:   areas,
		}
	}

	return res
}

func normalizeElements(raw []rawElement) []graph.ScreenElement {
	out := make([]graph.ScreenElement, 0, len(raw))
	for _, el := range raw {
		e := graph.ScreenElement{
			Content: firstNonEmpty(el.Content, el.Text),
			Type:    el.Type,
			BBox:    el.BBox,
		}
		if e.BBox == nil {
			e.BBox = el.Bounds
		}
		switch {
		case el.Interactive != nil:
			e.Interactive = *el.Interactive
		case el.Interactivity != nil:
			e.Interactive = *el.Interactivity
		case el.Status != nil:
			e.Interactive = el.Status.Clickable || el.Status.Editable || el.Status.Scrollable
		case el.ADBAttributes != nil:
			e.Interactive = el.ADBAttributes.Clickable || el.ADBAttributes.Editable || el.ADBAttributes.Scrollable
		}
		out = append(out, e)
	}
	return out
}

func nestedLabel(raw *RawNode) string {
	if raw.Data == nil {
		return ""
	}
	return raw.Data.Label
}

func nestedDescription(raw *RawNode) string {
	if raw.Data == nil {
		return ""
	}
	return raw.Data.Description
}

func nestedScreenshot(raw *RawNode) string {
	if raw.Data == nil {
		return ""
	}
	return raw.Data.Screenshot
}

func nestedAnnotated(raw *RawNode) string {
	if raw.Data == nil {
		return ""
	}
	return raw.Data.AnnotatedScreenshot
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode to float64; traffic ids are integers
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
