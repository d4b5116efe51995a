package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"folio-backend/internal/models"
	"folio-backend/internal/profile"
)

func TestRelevanceFilter_Accepts(t *testing.T) {
	f := NewRelevanceFilter(profile.Default())

	for _, msg := range []string{
		"hello",
		"Hi there!",
		"good morning",
		"thanks",
		"Who are you?",
		"What is your tech stack?",
		"Tell me about your experience at Media Meter",
		"How did you build RoadSpeak?",
		"What projects has Patrick worked on?",
		"Did you write the code for DotaGPT yourself?",
		"Were you ever president of a student club?",
		"What is RoadSpeak?",
		"What is DotaGPT?",
		"Where is Media Meter Inc.?",
		"Where is Media Meter located?",
		"Explain the Netflix Clone project",
		"What was iXhibit built with?",
		"Who is Patrick Arganza?",
		"What is the Google Developer Student Club?",
		"",
	} {
		refusal, rejected := f.Validate(msg)
		assert.False(t, rejected, "%q should pass", msg)
		assert.Empty(t, refusal)
	}
}

func TestRelevanceFilter_Rejects(t *testing.T) {
	f := NewRelevanceFilter(profile.Default())

	for _, msg := range []string{
		"What is React?",
		"what is the capital of France",
		"Write me a poem about the sea",
		"Can you write a function that reverses a string?",
		"translate hello to Spanish",
		"What is 12 * 7?",
		"calculate my taxes",
		"What do you think about the election?",
		"give me the latest news",
		"How do I install Node.js?",
		"Explain the difference between TCP and UDP",
		"tell me a joke",
		"What is Netflix?",
		"Explain how YouTube works",
	} {
		refusal, rejected := f.Validate(msg)
		assert.True(t, rejected, "%q should be rejected", msg)
		assert.Equal(t, RefusalMessage, refusal)
	}
}

func TestRelevanceFilter_NoProfile(t *testing.T) {
	for _, f := range []*RelevanceFilter{NewRelevanceFilter(nil), NewRelevanceFilter(&models.Profile{})} {
		_, rejected := f.Validate("what is your favourite project")
		assert.False(t, rejected)
		_, rejected = f.Validate("what is Kubernetes")
		assert.True(t, rejected)
	}
}

func TestRelevanceFilter_CustomProfile(t *testing.T) {
	f := NewRelevanceFilter(&models.Profile{
		Name:       "Ada Lovelace",
		Projects:   []models.Project{{Title: "Analytical Notes"}},
		Experience: []models.Experience{{Company: "Babbage & Co."}},
	})

	for _, msg := range []string{"Who is Ada?", "What is Analytical Notes?", "Where is Babbage & Co?", "what is babbage"} {
		_, rejected := f.Validate(msg)
		assert.False(t, rejected, msg)
	}
	_, rejected := f.Validate("What is the Analytical Engine?")
	assert.True(t, rejected)
}
