package domain

// Axis is one of the independent compatibility dimensions a profile is
// described and embedded along.
type Axis int

const (
	AxisPsychological Axis = iota
	AxisValues
	AxisInterests
	AxisBehavioral
)

// AxisCount is the fixed number of axes every profile carries.
const AxisCount = 4

// Axes lists the axes in their canonical order.
var Axes = [AxisCount]Axis{AxisPsychological, AxisValues, AxisInterests, AxisBehavioral}

var axisNames = [AxisCount]string{"psychological", "values", "interests", "behavioral"}

func (a Axis) String() string {
	if !a.valid() {
		return "unknown"
	}
	return axisNames[a]
}

func (a Axis) valid() bool {
	return a >= 0 && int(a) < AxisCount
}

// ParseAxis resolves an axis by its lowercase name.
func ParseAxis(name string) (Axis, bool) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), true
		}
	}
	return 0, false
}

// AxisTexts holds the natural-language description of each axis.
type AxisTexts [AxisCount]string

// AxisVectors holds the embedding of each axis. A nil entry means the axis
// has not been embedded.
type AxisVectors [AxisCount][]float32

// Complete reports whether every axis has a non-empty embedding.
func (v AxisVectors) Complete() bool {
	for _, vec := range v {
		if len(vec) == 0 {
			return false
		}
	}
	return true
}

// Dimensions returns the shared vector length, or 0 when the vectors are
// incomplete or disagree in length.
func (v AxisVectors) Dimensions() int {
	if !v.Complete() {
		return 0
	}
	dims := len(v[0])
	for _, vec := range v[1:] {
		if len(vec) != dims {
			return 0
		}
	}
	return dims
}

// Breakdown is the per-axis cosine similarity between two profiles.
type Breakdown struct {
	Psychological float64 `json:"psychological"`
	Values        float64 `json:"values"`
	Interests     float64 `json:"interests"`
	Behavioral    float64 `json:"behavioral"`
}

// NewBreakdown builds a Breakdown from similarities in canonical axis order.
func NewBreakdown(sims [AxisCount]float64) Breakdown {
	return Breakdown{
		Psychological: sims[AxisPsychological],
		Values:        sims[AxisValues],
		Interests:     sims[AxisInterests],
		Behavioral:    sims[AxisBehavioral],
	}
}
