package events

import (
	"time"
)

// Event type constants
const (
	TypeTrainingStarted     = "training.started"
	TypeTrainingCompleted   = "training.completed"
	TypeCandidateRejected   = "generation.candidate_rejected"
	TypeDungeonGenerated    = "generation.dungeon_generated"
	TypeGenerationExhausted = "generation.exhausted"
)

// TrainingStartedEvent is published before the first episode
type TrainingStartedEvent struct {
	BaseEvent
	Rows     int
	Cols     int
	Episodes int
}

func NewTrainingStartedEvent(runID string, rows, cols, episodes int) *TrainingStartedEvent {
	return &TrainingStartedEvent{
		BaseEvent: newBase(TypeTrainingStarted, runID),
		Rows:      rows,
		Cols:      cols,
		Episodes:  episodes,
	}
}

// TrainingCompletedEvent is published after the last episode
type TrainingCompletedEvent struct {
	BaseEvent
	Episodes   int
	Exploits   int
	MeanReward float64
	Duration   time.Duration
}

func NewTrainingCompletedEvent(runID string, episodes, exploits int, meanReward float64, duration time.Duration) *TrainingCompletedEvent {
	return &TrainingCompletedEvent{
		BaseEvent:  newBase(TypeTrainingCompleted, runID),
		Episodes:   episodes,
		Exploits:   exploits,
		MeanReward: meanReward,
		Duration:   duration,
	}
}

// CandidateRejectedEvent is published when a swept grid falls short of the
// size threshold and is thrown away
type CandidateRejectedEvent struct {
	BaseEvent
	Attempt       int
	ComponentSize int
	Threshold     int
}

func NewCandidateRejectedEvent(runID string, attempt, componentSize, threshold int) *CandidateRejectedEvent {
	return &CandidateRejectedEvent{
		BaseEvent:     newBase(TypeCandidateRejected, runID),
		Attempt:       attempt,
		ComponentSize: componentSize,
		Threshold:     threshold,
	}
}

// DungeonGeneratedEvent is published when a grid is accepted
type DungeonGeneratedEvent struct {
	BaseEvent
	Width         int
	Height        int
	Attempts      int
	ComponentSize int
	Keypoints     bool
}

func NewDungeonGeneratedEvent(runID string, width, height, attempts, componentSize int, keypoints bool) *DungeonGeneratedEvent {
	return &DungeonGeneratedEvent{
		BaseEvent:     newBase(TypeDungeonGenerated, runID),
		Width:         width,
		Height:        height,
		Attempts:      attempts,
		ComponentSize: componentSize,
		Keypoints:     keypoints,
	}
}

// GenerationExhaustedEvent is published when no candidate met the threshold
// within the attempt budget
type GenerationExhaustedEvent struct {
	BaseEvent
	Attempts  int
	BestSize  int
	Threshold int
}

func NewGenerationExhaustedEvent(runID string, attempts, bestSize, threshold int) *GenerationExhaustedEvent {
	return &GenerationExhaustedEvent{
		BaseEvent: newBase(TypeGenerationExhausted, runID),
		Attempts:  attempts,
		BestSize:  bestSize,
		Threshold: threshold,
	}
}
