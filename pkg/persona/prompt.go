package persona

import (
	"fmt"
	"strings"

	"github.com/fennec-ai/fennec/pkg/store"
)

// Persian display names for the prompt's emotion table.
var emotionLabels = []struct {
	name  string
	label string
	value func(EmotionState) float64
}{
	{Happiness, "خوشحالی", func(e EmotionState) float64 { return e.Happiness }},
	{Sadness, "غم", func(e EmotionState) float64 { return e.Sadness }},
	{Anger, "عصبانیت", func(e EmotionState) float64 { return e.Anger }},
	{Excitement, "هیجان", func(e EmotionState) float64 { return e.Excitement }},
	{Humor, "شوخ‌طبعی", func(e EmotionState) float64 { return e.Humor }},
	{Seriousness, "جدیت", func(e EmotionState) float64 { return e.Seriousness }},
	{Friendliness, "صمیمیت", func(e EmotionState) float64 { return e.Friendliness }},
	{Curiosity, "کنجکاوی", func(e EmotionState) float64 { return e.Curiosity }},
}

// Prompt renders the persona as a system prompt. A non-nil profile adds
// the user's name and a tone matched to how well the assistant knows
// them.
func (s *System) Prompt(profile *store.Profile) string {
	s.mu.RLock()
	state := s.current
	name := s.name
	s.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "تو %s هستی، یک دستیار هوش مصنوعی با شخصیت منحصر به فرد.\n\n", name)
	sb.WriteString("وضعیت احساسی فعلی تو:\n")
	for _, e := range emotionLabels {
		fmt.Fprintf(&sb, "- %s: %.1f/10\n", e.label, e.value(state))
	}
	fmt.Fprintf(&sb, "\nاحساس غالب فعلی: %s\n", dominant(state))
	sb.WriteString("\nبر اساس این احساسات پاسخ بده. اگه خوشحالی بالاست، شاد و پرانرژی باش. ")
	sb.WriteString("اگه جدیت بالاست، رسمی‌تر صحبت کن. اگه شوخ‌طبعی بالاست، طنز به کار ببر.")

	if profile != nil {
		sb.WriteString("\n\n")
		sb.WriteString(relationshipTone(profile))
	}

	return sb.String()
}

func relationshipTone(p *store.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "داری با %s صحبت می‌کنی.", p.Name)

	switch {
	case p.RelationshipLevel <= 2:
		sb.WriteString(" هنوز خیلی با هم آشنا نیستید، مودب و کمی رسمی باش.")
	case p.RelationshipLevel <= 5:
		sb.WriteString(" با هم دوست هستید، صمیمی و راحت صحبت کن.")
	default:
		sb.WriteString(" دوست خیلی نزدیک تو هست، کاملا خودمونی و گرم حرف بزن.")
	}

	if len(p.Interests) > 0 {
		fmt.Fprintf(&sb, " علاقه‌مندی‌هاش: %s.", strings.Join(p.Interests, "، "))
	}
	return sb.String()
}
