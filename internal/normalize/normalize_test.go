package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DetectionsShape(t *testing.T) {
	raw := map[string]interface{}{
		"detections": []interface{}{
			map[string]interface{}{
				"xyxy":       []interface{}{1.0, 2.0, 3.0, 4.0},
				"confidence": 0.9,
				"class_name": "car",
			},
		},
	}

	out, err := Normalize(raw)
	require.NoError(t, err)

	frames := out["frames"].([]map[string]interface{})
	require.Len(t, frames, 1)
	assert.Equal(t, 0, frames[0]["frame_index"])
	assert.Equal(t, []float64{0.9}, frames[0]["scores"])
	assert.Equal(t, []string{"car"}, frames[0]["labels"])
}

func TestNormalize_ParallelListsShape(t *testing.T) {
	raw := map[string]interface{}{
		"boxes":  []interface{}{[]interface{}{1.0, 2.0, 3.0, 4.0}},
		"scores": []interface{}{0.9},
		"labels": []interface{}{"car"},
	}

	out, err := Normalize(raw)
	require.NoError(t, err)

	frames := out["frames"].([]map[string]interface{})
	require.Len(t, frames, 1)
	assert.Equal(t, []float64{0.9}, frames[0]["scores"])
}

func TestNormalize_BothShapesProduceIdenticalCanonicalOutput(t *testing.T) {
	detections := map[string]interface{}{
		"detections": []interface{}{
			map[string]interface{}{
				"xyxy":       []interface{}{1.0, 2.0, 3.0, 4.0},
				"confidence": 0.75,
				"class_name": "person",
			},
		},
	}
	parallel := map[string]interface{}{
		"boxes":  []interface{}{[]interface{}{1.0, 2.0, 3.0, 4.0}},
		"scores": []interface{}{0.75},
		"labels": []interface{}{"person"},
	}

	outA, errA := Normalize(detections)
	outB, errB := Normalize(parallel)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, outA, outB)
}

func TestNormalize_LengthMismatchFails(t *testing.T) {
	raw := map[string]interface{}{
		"boxes":  []interface{}{[]interface{}{1.0, 2.0, 3.0, 4.0}},
		"scores": []interface{}{0.9, 0.1},
		"labels": []interface{}{"car"},
	}
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_ScoreOutOfRangeFails(t *testing.T) {
	raw := map[string]interface{}{
		"boxes":  []interface{}{[]interface{}{1.0, 2.0, 3.0, 4.0}},
		"scores": []interface{}{1.5},
		"labels": []interface{}{"car"},
	}
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_MissingShapeFails(t *testing.T) {
	_, err := Normalize(map[string]interface{}{"foo": "bar"})
	assert.Error(t, err)
}
