package domain

import "time"

// Profile is the per-user compatibility profile produced by an assessment.
// Descriptions and embeddings are written together; a profile is complete
// only when all four embeddings are present.
type Profile struct {
	UserID            string      `json:"user_id"`
	PsychologicalDesc *string     `json:"psychological_desc"`
	ValuesDesc        *string     `json:"values_desc"`
	InterestsDesc     *string     `json:"interests_desc"`
	BehavioralDesc    *string     `json:"behavioral_desc"`
	Embeddings        AxisVectors `json:"-"`
	AssessmentVersion float64     `json:"assessment_version"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// IsComplete reports whether the profile can seed or join a match query.
func (p *Profile) IsComplete() bool {
	return p != nil && p.Embeddings.Complete()
}

// SetDescriptions copies assembled axis texts onto the profile.
func (p *Profile) SetDescriptions(texts AxisTexts) {
	psychological, values, interests, behavioral := texts[AxisPsychological], texts[AxisValues], texts[AxisInterests], texts[AxisBehavioral]
	p.PsychologicalDesc = &psychological
	p.ValuesDesc = &values
	p.InterestsDesc = &interests
	p.BehavioralDesc = &behavioral
}

// Descriptions returns the axis texts, with empty strings for unset axes.
func (p *Profile) Descriptions() AxisTexts {
	var texts AxisTexts
	for i, d := range []*string{p.PsychologicalDesc, p.ValuesDesc, p.InterestsDesc, p.BehavioralDesc} {
		if d != nil {
			texts[i] = *d
		}
	}
	return texts
}

// Clone returns a deep copy so stored snapshots are never shared with callers.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	for i, vec := range p.Embeddings {
		if vec != nil {
			cp.Embeddings[i] = append([]float32(nil), vec...)
		}
	}
	return &cp
}

// ProfileStatus summarises profile completeness for callers.
type ProfileStatus struct {
	UserID            string     `json:"user_id"`
	ProfileComplete   bool       `json:"profile_complete"`
	AssessmentVersion float64    `json:"assessment_version,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}
