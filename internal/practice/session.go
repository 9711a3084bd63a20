// Package practice drives an interactive exercise session for one course:
// an ordered walk over the course's exercises with a draft answer, graded
// results, and clamped navigation.
package practice

import (
	"context"
	"sync"

	"lingua-client/internal/domain"
)

// Submitter grades one answer server-side; *api.Client satisfies it.
type Submitter interface {
	SubmitAttempt(ctx context.Context, exerciseID int64, answer string, timeTaken int) (domain.Attempt, error)
}

// State is the derived lifecycle of a single exercise within the session.
type State int

const (
	// Unanswered: no draft, no recorded result.
	Unanswered State = iota
	// Drafting: a non-empty draft, no recorded result yet.
	Drafting
	// Submitted: a graded result exists. Terminal for the session.
	Submitted
)

func (s State) String() string {
	switch s {
	case Drafting:
		return "drafting"
	case Submitted:
		return "submitted"
	default:
		return "unanswered"
	}
}

// Session walks the exercises of one course. The draft answer always
// belongs to the exercise at the current index; moving the index in either
// direction discards it. Each exercise records at most one result, and at
// most one submission is in flight at a time.
type Session struct {
	submitter Submitter

	mu        sync.Mutex
	exercises []domain.Exercise
	index     int
	draft     string
	results   map[int64]domain.Attempt
	inFlight  bool
}

// New starts a session over an ordered exercise list.
func New(submitter Submitter, exercises []domain.Exercise) (*Session, error) {
	if len(exercises) == 0 {
		return nil, domain.ErrNoExercises
	}
	return &Session{
		submitter: submitter,
		exercises: exercises,
		results:   make(map[int64]domain.Attempt),
	}, nil
}

// Current returns the exercise at the current index.
func (s *Session) Current() domain.Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exercises[s.index]
}

// Index returns the zero-based position within the session.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Len returns the number of exercises.
func (s *Session) Len() int {
	return len(s.exercises)
}

// Progress reports (index+1)/len, independent of submission state.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.index+1) / float64(len(s.exercises))
}

// Draft returns the in-progress answer for the current exercise.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SelectDraft replaces the draft answer. It is ignored once the current
// exercise has a recorded result.
func (s *Session) SelectDraft(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.results[s.exercises[s.index].ExerciseID]; done {
		return
	}
	s.draft = answer
}

// Next advances to the following exercise and discards the draft. At the
// last exercise it is a no-op: the index clamps, it never wraps.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < len(s.exercises)-1 {
		s.index++
		s.draft = ""
	}
}

// Previous steps back one exercise and discards the draft, clamping at 0.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index > 0 {
		s.index--
		s.draft = ""
	}
}

// Submit grades the current draft. It is a silent no-op, returning
// (nil, nil), when the draft is empty, the exercise already has a result,
// or another submission is still in flight. On success the result is
// recorded under the exercise id and the draft is kept for display; on
// error the exercise stays in Drafting so the user can retry.
func (s *Session) Submit(ctx context.Context) (*domain.Attempt, error) {
	s.mu.Lock()
	exercise := s.exercises[s.index]
	answer := s.draft
	_, done := s.results[exercise.ExerciseID]
	if answer == "" || done || s.inFlight {
		s.mu.Unlock()
		return nil, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	attempt, err := s.submitter.SubmitAttempt(ctx, exercise.ExerciseID, answer, 0)

	s.mu.Lock()
	s.inFlight = false
	if err == nil {
		s.results[exercise.ExerciseID] = attempt
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Result returns the recorded attempt for an exercise id, if any.
func (s *Session) Result(exerciseID int64) (domain.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.results[exerciseID]
	return attempt, ok
}

// StateOf reports the derived state of the current exercise.
func (s *Session) StateOf() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[s.exercises[s.index].ExerciseID]; ok {
		return Submitted
	}
	if s.draft != "" {
		return Drafting
	}
	return Unanswered
}

// Score sums the points earned across all recorded results.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, attempt := range s.results {
		total += attempt.ScoreEarned
	}
	return total
}

// Answered reports how many exercises have recorded results.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
