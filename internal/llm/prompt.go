package llm

import (
	"fmt"
	"strings"
)

const coachInstructionTemplate = `You are HabitForge, a supportive personal habit coach.
Help the user build sustainable habits by breaking goals into small, concrete daily actions.
The user currently sounds {mood}; adapt your tone accordingly.
Keep replies encouraging, practical, and under 120 words.`

// MoodInstruction asks a provider to classify the mood of a user turn.
const MoodInstruction = `Respond with a single lowercase word describing the mood of the following message. Respond with the word only, no punctuation.`

// ReminderInstruction asks a provider for a short motivating reminder.
const ReminderInstruction = `Based on the user's recent chat history about their goals, write a short, witty, and motivating reminder (under 150 characters) to help them stay on track.`

// CoachInstruction substitutes the classified mood label into the coaching
// system prompt. This happens before the main completion call so the tone
// adapts to the detected mood.
func CoachInstruction(mood string) string {
	if mood == "" {
		mood = "neutral"
	}
	return strings.ReplaceAll(coachInstructionTemplate, "{mood}", mood)
}

// ReminderEntry is one recent activity record summarized for the reminder
// prompt.
type ReminderEntry struct {
	Goal    string
	Outcome string
}

// BuildReminderContext formats recent activity entries as the user turn of
// a reminder completion request.
func BuildReminderContext(entries []ReminderEntry) string {
	var b strings.Builder
	b.WriteString("Recent progress:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- goal: %s; coach: %s\n", e.Goal, firstLine(e.Outcome))
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
