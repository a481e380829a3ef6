package game

import (
	"regexp"
	"time"

	"emojirades-bot/internal/match"
)

// DefaultEditWindow is how long after a message is sent an edit of it is
// still considered for inference. Older edits are ignored so a stale
// correction cannot retroactively resolve a round.
const DefaultEditWindow = 30 * time.Second

// emojiTokenPattern matches :shortcode: emoji tokens such as :tada: or
// :+1:.
var emojiTokenPattern = regexp.MustCompile(`:[a-zA-Z0-9_+'-]+:`)

// ContainsEmojiToken reports whether the text contains at least one
// :shortcode: emoji token.
func ContainsEmojiToken(text string) bool {
	return emojiTokenPattern.MatchString(text)
}

// Message is an inbound chat message (or edit) considered for inference.
// EditedAt is the zero time for original messages.
type Message struct {
	SenderID int64
	Text     string
	SentAt   time.Time
	EditedAt time.Time
}

// InferenceKind classifies what a plain chat message implies for the game.
type InferenceKind int

const (
	// InferenceNone: the message does not advance the game.
	InferenceNone InferenceKind = iota

	// InferenceWinnerPosted: the current winner posted their emoji while
	// the channel was waiting for it; the caller should apply
	// WinnerPosted.
	InferenceWinnerPosted

	// InferenceCorrectGuess: the message is a correct guess; the caller
	// should apply RegisterCorrectGuess and award the point.
	InferenceCorrectGuess

	// InferenceWrongGuess: a guess attempt that did not match. No state
	// change beyond clearing the first-guess flag; no reply.
	InferenceWrongGuess

	// InferenceGuessTooLong: a guess attempt rejected by the Scott Factor
	// length guard. Treated like a wrong guess for game flow, but
	// distinguishable for logging.
	InferenceGuessTooLong
)

// String returns a short label for logging.
func (k InferenceKind) String() string {
	switch k {
	case InferenceWinnerPosted:
		return "winner_posted"
	case InferenceCorrectGuess:
		return "correct_guess"
	case InferenceWrongGuess:
		return "wrong_guess"
	case InferenceGuessTooLong:
		return "guess_too_long"
	default:
		return "none"
	}
}

// Inference is the outcome of considering a message against the channel
// state.
type Inference struct {
	Kind InferenceKind

	// Guesser is set for guess-attempt kinds.
	Guesser int64

	// FirstGuess reports whether this was the round's first guess attempt.
	FirstGuess bool
}

// Infer decides whether a plain chat message implicitly advances the game,
// without mutating the state. The caller applies the implied transition
// (and clears FirstGuess after any guess attempt) while holding the
// channel lock.
//
// Edits are considered only when made within editWindow of the original
// send; pass zero to use DefaultEditWindow.
func (s *State) Infer(msg Message, scottFactor int, editWindow time.Duration) Inference {
	if editWindow <= 0 {
		editWindow = DefaultEditWindow
	}
	if !msg.EditedAt.IsZero() && msg.EditedAt.Sub(msg.SentAt) > editWindow {
		return Inference{Kind: InferenceNone}
	}

	switch {
	case s.Step == StepProvided && msg.SenderID == s.CurrentWinner:
		if ContainsEmojiToken(msg.Text) {
			return Inference{Kind: InferenceWinnerPosted}
		}

	case s.Step == StepGuessing &&
		msg.SenderID != s.CurrentWinner && msg.SenderID != s.PreviousWinner:
		guess := match.Normalize(msg.Text)
		inf := Inference{Guesser: msg.SenderID, FirstGuess: s.FirstGuess}
		switch match.Evaluate(guess, s.Variants, scottFactor) {
		case match.OutcomeMatch:
			inf.Kind = InferenceCorrectGuess
		case match.OutcomeTooLong:
			inf.Kind = InferenceGuessTooLong
		default:
			inf.Kind = InferenceWrongGuess
		}
		return inf
	}

	return Inference{Kind: InferenceNone}
}
