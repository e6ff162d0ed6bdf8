// Package mood classifies user text into a coarse mood label that
// conditions the coaching prompt.
package mood

import (
	"context"
	"strings"

	"github.com/habitforge/habitforge/internal/llm"
	"github.com/rs/zerolog/log"
)

// Neutral is the fallback label; classification never fails outright.
const Neutral = "neutral"

// keyword groups are ordered: the first group with a match wins.
var keywordGroups = []struct {
	label    string
	keywords []string
}{
	{"happy", []string{"happy", "excited", "great", "awesome"}},
	{"stressed", []string{"stressed", "anxious", "overwhelmed", "worried"}},
	{"tired", []string{"tired", "exhausted", "sleepy", "drained"}},
	{"frustrated", []string{"frustrated", "annoyed", "stuck", "angry"}},
}

// ProviderResolver resolves the completion provider for remote
// classification. *llm.Router satisfies it.
type ProviderResolver interface {
	GetProvider(name string) (llm.Provider, error)
}

// Classifier produces a mood label for each user turn. Privileged users get
// a remote classification via the completion provider; everyone else gets
// the local keyword heuristic.
type Classifier struct {
	providers ProviderResolver
}

// NewClassifier creates a classifier. providers may be nil, in which case
// the privileged path degrades to the local heuristic.
func NewClassifier(providers ProviderResolver) *Classifier {
	return &Classifier{providers: providers}
}

// Classify returns a mood label for text. It never returns an error: any
// remote failure degrades silently to "neutral". The second return reports
// whether the classification succeeded without error, which gates whether a
// mood log row is recorded.
func (c *Classifier) Classify(ctx context.Context, text string, privileged bool) (string, bool) {
	if privileged && c.providers != nil {
		return c.classifyRemote(ctx, text)
	}
	return classifyLocal(text), true
}

func (c *Classifier) classifyRemote(ctx context.Context, text string) (string, bool) {
	// Resolved per call so a provider registered or deconfigured after boot
	// is picked up, and an unavailable provider counts as a failed remote
	// classification rather than a silent heuristic fallback.
	provider, err := c.providers.GetProvider("")
	if err != nil {
		log.Debug().Err(err).Msg("no provider for mood classification, falling back to neutral")
		return Neutral, false
	}

	result, err := provider.Complete(ctx, llm.MoodInstruction, []llm.Turn{
		{Role: "user", Content: text},
	})
	if err != nil {
		log.Debug().Err(err).Msg("remote mood classification failed, falling back to neutral")
		return Neutral, false
	}

	label := strings.ToLower(strings.TrimSpace(result))
	// Guard against chatty models: keep the first word only.
	if fields := strings.Fields(label); len(fields) > 0 {
		label = fields[0]
	}
	label = strings.Trim(label, ".!?,\"'")
	if label == "" {
		return Neutral, false
	}

	return label, true
}

func classifyLocal(text string) string {
	lowered := strings.ToLower(text)
	for _, group := range keywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lowered, kw) {
				return group.label
			}
		}
	}
	return Neutral
}
