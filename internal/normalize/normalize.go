// Package normalize converts a plugin's raw result mapping into the
// canonical "frames" document shape (§4.3.1).
package normalize

import "fmt"

// Normalize accepts either of the two shapes a plugin may return a
// detection result in and converts it to the canonical frames document:
//
//	{ "frames": [ { "frame_index": 0, "boxes": [...], "scores": [...],
//	               "labels": [...] } ] }
//
// A validation failure returns a descriptive error; callers are expected
// to fall back to the raw mapping rather than fail the job.
func Normalize(raw map[string]interface{}) (map[string]interface{}, error) {
	if raw == nil {
		return nil, fmt.Errorf("normalize: nil result")
	}

	if detections, ok := raw["detections"]; ok {
		return normalizeDetections(detections)
	}
	if _, ok := raw["boxes"]; ok {
		return normalizeParallelLists(raw)
	}
	return nil, fmt.Errorf("normalize: result has neither 'detections' nor 'boxes'")
}

func normalizeDetections(detections interface{}) (map[string]interface{}, error) {
	list, ok := detections.([]interface{})
	if !ok {
		return nil, fmt.Errorf("normalize: 'detections' must be a list")
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("normalize: 'detections' must not be empty")
	}

	boxes := make([]map[string]interface{}, 0, len(list))
	scores := make([]float64, 0, len(list))
	labels := make([]string, 0, len(list))

	for i, item := range list {
		det, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("normalize: detection %d is not a mapping", i)
		}

		xyxy, ok := det["xyxy"].([]interface{})
		if !ok || len(xyxy) != 4 {
			return nil, fmt.Errorf("normalize: detection %d 'xyxy' must be a 4-element list", i)
		}
		box, err := boxFromXYXY(xyxy)
		if err != nil {
			return nil, fmt.Errorf("normalize: detection %d: %w", i, err)
		}

		confidence, ok := asFloat(det["confidence"])
		if !ok || confidence < 0 || confidence > 1 {
			return nil, fmt.Errorf("normalize: detection %d 'confidence' must be a number in [0,1]", i)
		}

		className, ok := det["class_name"].(string)
		if !ok {
			return nil, fmt.Errorf("normalize: detection %d 'class_name' must be a string", i)
		}

		boxes = append(boxes, box)
		scores = append(scores, confidence)
		labels = append(labels, className)
	}

	return frameDocument(boxes, scores, labels), nil
}

func normalizeParallelLists(raw map[string]interface{}) (map[string]interface{}, error) {
	rawBoxes, ok := raw["boxes"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("normalize: 'boxes' must be a list")
	}
	rawScores, ok := raw["scores"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("normalize: 'scores' must be a list")
	}
	rawLabels, ok := raw["labels"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("normalize: 'labels' must be a list")
	}

	n := len(rawBoxes)
	if n == 0 {
		return nil, fmt.Errorf("normalize: 'boxes' must not be empty")
	}
	if len(rawScores) != n || len(rawLabels) != n {
		return nil, fmt.Errorf("normalize: 'boxes', 'scores', 'labels' must be the same non-zero length")
	}

	boxes := make([]map[string]interface{}, 0, n)
	scores := make([]float64, 0, n)
	labels := make([]string, 0, n)

	for i := 0; i < n; i++ {
		coords, ok := rawBoxes[i].([]interface{})
		if !ok || len(coords) != 4 {
			return nil, fmt.Errorf("normalize: box %d must be a 4-element list", i)
		}
		box, err := boxFromXYXY(coords)
		if err != nil {
			return nil, fmt.Errorf("normalize: box %d: %w", i, err)
		}

		score, ok := asFloat(rawScores[i])
		if !ok || score < 0 || score > 1 {
			return nil, fmt.Errorf("normalize: score %d must be a number in [0,1]", i)
		}

		label, ok := rawLabels[i].(string)
		if !ok {
			return nil, fmt.Errorf("normalize: label %d must be a string", i)
		}

		boxes = append(boxes, box)
		scores = append(scores, score)
		labels = append(labels, label)
	}

	return frameDocument(boxes, scores, labels), nil
}

func boxFromXYXY(coords []interface{}) (map[string]interface{}, error) {
	vals := make([]float64, 4)
	for i, c := range coords {
		v, ok := asFloat(c)
		if !ok {
			return nil, fmt.Errorf("coordinate %d is not numeric", i)
		}
		vals[i] = v
	}
	return map[string]interface{}{
		"x1": vals[0],
		"y1": vals[1],
		"x2": vals[2],
		"y2": vals[3],
	}, nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func frameDocument(boxes []map[string]interface{}, scores []float64, labels []string) map[string]interface{} {
	return map[string]interface{}{
		"frames": []map[string]interface{}{
			{
				"frame_index": 0,
				"boxes":       boxes,
				"scores":      scores,
				"labels":      labels,
			},
		},
	}
}
