package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emojirades-bot/internal/match"
)

func TestContainsEmojiToken(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"guess this :tada:", true},
		{":thumbs_up::fire:", true},
		{":+1:", true},
		{"10:30 meeting", false},
		{"plain text", false},
		{"::", false},
		{"broken :token", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsEmojiToken(tt.text))
		})
	}
}

func msgAt(sender int64, text string) Message {
	return Message{SenderID: sender, Text: text, SentAt: time.Now()}
}

func TestInferWinnerPosted(t *testing.T) {
	s := startedState(t)
	require.NoError(t, s.ProvideEmojirade("big ben"))

	// Non-winner emoji posts are ignored.
	inf := s.Infer(msgAt(userC, ":clock: :bell:"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceNone, inf.Kind)

	// Winner posts without emoji are ignored.
	inf = s.Infer(msgAt(userB, "hold on, thinking"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceNone, inf.Kind)

	// The winner's emoji post opens guessing.
	inf = s.Infer(msgAt(userB, ":clock: :bell:"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceWinnerPosted, inf.Kind)

	// Infer itself does not mutate.
	assert.Equal(t, StepProvided, s.Step)
}

func TestInferGuesses(t *testing.T) {
	s := guessingState(t, "Big Ben")

	tests := []struct {
		name     string
		sender   int64
		text     string
		expected InferenceKind
	}{
		{"correct guess", userC, "is it Big Ben?", InferenceCorrectGuess},
		{"correct via accent folding", userC, "BÍG BEN", InferenceCorrectGuess},
		{"wrong guess", userC, "eiffel tower", InferenceWrongGuess},
		{"substring does not count", userC, "bigbenish", InferenceWrongGuess},
		{"pasted paragraph", userC, "maybe big ben but let me explain my reasoning at great length here", InferenceGuessTooLong},
		{"current winner ignored", userB, "big ben", InferenceNone},
		{"previous winner ignored", userA, "big ben", InferenceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inf := s.Infer(msgAt(tt.sender, tt.text), match.DefaultScottFactor, 0)
			assert.Equal(t, tt.expected, inf.Kind)
			if tt.expected != InferenceNone {
				assert.Equal(t, tt.sender, inf.Guesser)
			}
		})
	}
}

func TestInferAlternativePhrases(t *testing.T) {
	s := guessingState(t, "foo|bar")

	inf := s.Infer(msgAt(userC, "bar"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceCorrectGuess, inf.Kind)

	inf = s.Infer(msgAt(userC, "foo"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceCorrectGuess, inf.Kind)
}

func TestInferFirstGuessFlag(t *testing.T) {
	s := guessingState(t, "foo")

	inf := s.Infer(msgAt(userC, "nope"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceWrongGuess, inf.Kind)
	assert.True(t, inf.FirstGuess)

	// The caller clears the flag after any attempt.
	s.FirstGuess = false

	inf = s.Infer(msgAt(userC, "foo"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceCorrectGuess, inf.Kind)
	assert.False(t, inf.FirstGuess)
}

func TestInferEditRecency(t *testing.T) {
	s := guessingState(t, "foo")
	sent := time.Now()

	recent := Message{SenderID: userC, Text: "foo", SentAt: sent, EditedAt: sent.Add(20 * time.Second)}
	inf := s.Infer(recent, match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceCorrectGuess, inf.Kind)

	stale := Message{SenderID: userC, Text: "foo", SentAt: sent, EditedAt: sent.Add(40 * time.Second)}
	inf = s.Infer(stale, match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceNone, inf.Kind)
}

func TestInferOutsideActiveSteps(t *testing.T) {
	s := NewState(1)
	inf := s.Infer(msgAt(userC, "anything :tada:"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceNone, inf.Kind)

	require.NoError(t, s.StartNewGame(userA, userA, userB))
	inf = s.Infer(msgAt(userB, ":tada:"), match.DefaultScottFactor, 0)
	assert.Equal(t, InferenceNone, inf.Kind)
}
