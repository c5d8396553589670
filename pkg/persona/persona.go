// Package persona models the assistant's mood. A set of emotion sliders
// drifts with the tone of incoming messages and feeds the system prompt
// so the model answers in character.
package persona

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Emotion names accepted by Adjust and Set.
const (
	Happiness    = "happiness"
	Sadness      = "sadness"
	Anger        = "anger"
	Excitement   = "excitement"
	Humor        = "humor"
	Seriousness  = "seriousness"
	Friendliness = "friendliness"
	Curiosity    = "curiosity"
)

// EmotionState holds the emotion sliders, each clamped to [0, 10].
type EmotionState struct {
	Happiness    float64
	Sadness      float64
	Anger        float64
	Excitement   float64
	Humor        float64
	Seriousness  float64
	Friendliness float64
	Curiosity    float64
}

// DefaultEmotions returns the baseline mood.
func DefaultEmotions() EmotionState {
	return EmotionState{
		Happiness:    5,
		Sadness:      2,
		Anger:        1,
		Excitement:   4,
		Humor:        6,
		Seriousness:  5,
		Friendliness: 8,
		Curiosity:    7,
	}
}

func (e EmotionState) toMap() map[string]float64 {
	return map[string]float64{
		Happiness:    e.Happiness,
		Sadness:      e.Sadness,
		Anger:        e.Anger,
		Excitement:   e.Excitement,
		Humor:        e.Humor,
		Seriousness:  e.Seriousness,
		Friendliness: e.Friendliness,
		Curiosity:    e.Curiosity,
	}
}

func (e *EmotionState) pointer(name string) *float64 {
	switch name {
	case Happiness:
		return &e.Happiness
	case Sadness:
		return &e.Sadness
	case Anger:
		return &e.Anger
	case Excitement:
		return &e.Excitement
	case Humor:
		return &e.Humor
	case Seriousness:
		return &e.Seriousness
	case Friendliness:
		return &e.Friendliness
	case Curiosity:
		return &e.Curiosity
	}
	return nil
}

// System tracks the current and baseline mood. Safe for concurrent use.
type System struct {
	mu       sync.RWMutex
	current  EmotionState
	baseline EmotionState
	name     string
}

// NewSystem creates a personality system with the default baseline.
// The name is how the assistant refers to itself in the prompt.
func NewSystem(name string) *System {
	if name == "" {
		name = "Fennec"
	}
	return &System{
		current:  DefaultEmotions(),
		baseline: DefaultEmotions(),
		name:     name,
	}
}

// Adjust shifts an emotion by delta, clamped to [0, 10]. With permanent
// set, the baseline moves too so Reset keeps the change.
func (s *System) Adjust(emotion string, delta float64, permanent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.current.pointer(emotion)
	if p == nil {
		return fmt.Errorf("unknown emotion %q", emotion)
	}
	*p = clamp(*p + delta)
	if permanent {
		*s.baseline.pointer(emotion) = *p
	}
	return nil
}

// Set assigns an emotion an exact value, clamped to [0, 10].
func (s *System) Set(emotion string, value float64, permanent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.current.pointer(emotion)
	if p == nil {
		return fmt.Errorf("unknown emotion %q", emotion)
	}
	*p = clamp(value)
	if permanent {
		*s.baseline.pointer(emotion) = *p
	}
	return nil
}

// Reset returns the mood to its baseline.
func (s *System) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.baseline
}

// State returns a snapshot of the current mood.
func (s *System) State() EmotionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dominant returns the name of the strongest emotion. Ties break on the
// emotion name so the result is deterministic.
func (s *System) Dominant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dominant(s.current)
}

func dominant(e EmotionState) string {
	m := e.toMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if m[name] > m[best] {
			best = name
		}
	}
	return best
}

// moodCue pairs trigger words with the temporary adjustments they cause.
type moodCue struct {
	words  []string
	shifts map[string]float64
}

var moodCues = []moodCue{
	{
		words:  []string{"عالی", "خوب", "دوست دارم", "خوشحال", "شاد", "awesome", "great", "love it"},
		shifts: map[string]float64{Happiness: 0.5, Friendliness: 0.3},
	},
	{
		words:  []string{"بد", "ناراحت", "غمگین", "عصبانی", "متنفر", "خسته", "terrible", "hate", "sad"},
		shifts: map[string]float64{Sadness: 0.3, Happiness: -0.2},
	},
	{
		words:  []string{"خنده", "شوخی", "بامزه", "طنز", "😄", "😂", "🤣", "joke", "funny", "lol"},
		shifts: map[string]float64{Humor: 0.5, Happiness: 0.3},
	},
	{
		words:  []string{"مهم", "جدی", "کار", "مسئله", "مشکل", "serious", "important", "problem"},
		shifts: map[string]float64{Seriousness: 0.5, Humor: -0.2},
	},
}

// AnalyzeInput nudges the mood based on the tone of a user message and
// returns the adjustments applied, keyed by emotion name.
func (s *System) AnalyzeInput(text string) map[string]float64 {
	lowered := strings.ToLower(text)

	applied := make(map[string]float64)
	for _, cue := range moodCues {
		for _, w := range cue.words {
			if strings.Contains(lowered, w) {
				for emotion, delta := range cue.shifts {
					applied[emotion] += delta
				}
				break
			}
		}
	}

	for emotion, delta := range applied {
		_ = s.Adjust(emotion, delta, false)
	}
	return applied
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
