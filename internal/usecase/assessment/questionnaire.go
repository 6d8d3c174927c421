package assessment

import "github.com/gdugdh24/mpit2026-matching/internal/domain"

type QuestionKind string

const (
	KindScale QuestionKind = "scale"
	KindOpen  QuestionKind = "open"
)

// AnswerPlaceholder marks where open-question text goes in a template.
const AnswerPlaceholder = "{answer}"

// Question is one questionnaire item. Scale questions carry five option
// sentences, open questions carry a sentence template.
type Question struct {
	ID       domain.QuestionID `json:"id"`
	Axis     domain.Axis       `json:"-"`
	Kind     QuestionKind      `json:"kind"`
	Prompt   string            `json:"prompt"`
	Options  []string          `json:"options,omitempty"`
	Template string            `json:"-"`
}

// Questionnaire is an ordered, versioned set of questions.
type Questionnaire struct {
	Version   float64    `json:"version"`
	Questions []Question `json:"questions"`

	byID map[domain.QuestionID]int
}

func NewQuestionnaire(version float64, questions []Question) *Questionnaire {
	q := &Questionnaire{
		Version:   version,
		Questions: questions,
		byID:      make(map[domain.QuestionID]int, len(questions)),
	}
	for i, item := range questions {
		q.byID[item.ID] = i
	}
	return q
}

func (q *Questionnaire) Lookup(id domain.QuestionID) (Question, bool) {
	i, ok := q.byID[id]
	if !ok {
		return Question{}, false
	}
	return q.Questions[i], true
}

// ForAxis returns the axis's questions in questionnaire order.
func (q *Questionnaire) ForAxis(a domain.Axis) []Question {
	var out []Question
	for _, item := range q.Questions {
		if item.Axis == a {
			out = append(out, item)
		}
	}
	return out
}

// DefaultQuestionnaire is the production question set.
func DefaultQuestionnaire(version float64) *Questionnaire {
	return NewQuestionnaire(version, []Question{
		// Psychological
		{
			ID: "psy_energy", Axis: domain.AxisPsychological, Kind: KindScale,
			Prompt: "After a long week, how do you prefer to recharge?",
			Options: []string{
				"I recharge best completely alone",
				"I mostly recharge alone with an occasional close friend",
				"I recharge equally well alone or with people",
				"I usually recharge by spending time with friends",
				"I recharge by being around lots of people",
			},
		},
		{
			ID: "psy_stress", Axis: domain.AxisPsychological, Kind: KindScale,
			Prompt: "How do you usually react to stress?",
			Options: []string{
				"Stress tends to overwhelm me quickly",
				"I often feel anxious under pressure",
				"I handle stress reasonably well most of the time",
				"I stay calm in most stressful situations",
				"I am very calm and rarely feel stressed",
			},
		},
		{
			ID: "psy_novelty", Axis: domain.AxisPsychological, Kind: KindScale,
			Prompt: "How do you feel about new and unfamiliar experiences?",
			Options: []string{
				"I strongly prefer the familiar and predictable",
				"I am cautious about new experiences",
				"I enjoy new experiences from time to time",
				"I actively look for new experiences",
				"I crave novelty and constant change",
			},
		},
		{
			ID: "psy_self", Axis: domain.AxisPsychological, Kind: KindOpen,
			Prompt:   "Describe yourself in a few words.",
			Template: "People describe me as " + AnswerPlaceholder,
		},

		// Values
		{
			ID: "val_family", Axis: domain.AxisValues, Kind: KindScale,
			Prompt: "How important is family to you?",
			Options: []string{
				"Family plays a small role in my life",
				"Family matters to me but is not central",
				"Family is one of several important things for me",
				"Family is very important to me",
				"Family is the center of my life",
			},
		},
		{
			ID: "val_career", Axis: domain.AxisValues, Kind: KindScale,
			Prompt: "How do you balance career and personal life?",
			Options: []string{
				"Personal life always comes before work for me",
				"I lean towards personal life over career",
				"I try to keep career and personal life balanced",
				"I lean towards building my career",
				"My career is my top priority right now",
			},
		},
		{
			ID: "val_tradition", Axis: domain.AxisValues, Kind: KindScale,
			Prompt: "How do you relate to traditions?",
			Options: []string{
				"I question most traditions",
				"I follow traditions only when they make sense to me",
				"I respect traditions without being bound by them",
				"I value traditions and keep many of them",
				"Traditions are a core part of who I am",
			},
		},
		{
			ID: "val_important", Axis: domain.AxisValues, Kind: KindOpen,
			Prompt:   "What matters most to you in life?",
			Template: "What matters most to me is " + AnswerPlaceholder,
		},

		// Interests
		{
			ID: "int_active", Axis: domain.AxisInterests, Kind: KindScale,
			Prompt: "How active is your free time?",
			Options: []string{
				"I prefer quiet indoor activities",
				"I am mostly a homebody with occasional outings",
				"I mix quiet evenings with active weekends",
				"I spend most of my free time being active",
				"I live for sports and outdoor adventures",
			},
		},
		{
			ID: "int_culture", Axis: domain.AxisInterests, Kind: KindScale,
			Prompt: "How often do you go to concerts, exhibitions or theatre?",
			Options: []string{
				"I almost never attend cultural events",
				"I attend cultural events a few times a year",
				"I attend cultural events about once a month",
				"I attend cultural events several times a month",
				"Culture and the arts fill most of my weekends",
			},
		},
		{
			ID: "int_travel", Axis: domain.AxisInterests, Kind: KindScale,
			Prompt: "How much do you like to travel?",
			Options: []string{
				"I rarely travel and prefer staying home",
				"I travel occasionally, mostly close to home",
				"I enjoy a couple of trips a year",
				"I travel whenever I get the chance",
				"Travelling is my biggest passion",
			},
		},
		{
			ID: "int_hobbies", Axis: domain.AxisInterests, Kind: KindOpen,
			Prompt:   "What are your favourite hobbies?",
			Template: "In my free time I enjoy " + AnswerPlaceholder,
		},

		// Behavioral
		{
			ID: "beh_plans", Axis: domain.AxisBehavioral, Kind: KindScale,
			Prompt: "How do you approach plans?",
			Options: []string{
				"I am fully spontaneous and avoid plans",
				"I usually go with the flow",
				"I plan the important things and improvise the rest",
				"I like having a clear plan",
				"I plan everything in detail well in advance",
			},
		},
		{
			ID: "beh_conflict", Axis: domain.AxisBehavioral, Kind: KindScale,
			Prompt: "How do you handle disagreements?",
			Options: []string{
				"I avoid conflict at almost any cost",
				"I tend to let disagreements cool down before talking",
				"I talk things through when the moment is right",
				"I address disagreements directly and quickly",
				"I confront issues head-on immediately",
			},
		},
		{
			ID: "beh_communication", Axis: domain.AxisBehavioral, Kind: KindScale,
			Prompt: "How often do you like to stay in touch with a partner during the day?",
			Options: []string{
				"I need a lot of personal space during the day",
				"A message or two a day is enough for me",
				"I like staying in touch a few times a day",
				"I enjoy frequent messages throughout the day",
				"I like to be in near-constant contact",
			},
		},
		{
			ID: "beh_weekend", Axis: domain.AxisBehavioral, Kind: KindOpen,
			Prompt:   "Describe your ideal weekend.",
			Template: "My ideal weekend is " + AnswerPlaceholder,
		},
	})
}
