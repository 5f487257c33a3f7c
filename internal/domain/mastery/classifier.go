package mastery

// Classify derives the mastery level from accumulated counters and
// scheduling state. Pure function, no side effects.
func Classify(totalAttempts, correctAttempts, repetition, intervalDays int) Level {
	if totalAttempts < 3 {
		return LevelLearning
	}

	accuracy := float64(correctAttempts) / float64(totalAttempts)

	if accuracy >= 0.9 && repetition >= 3 && intervalDays >= 30 {
		return LevelMastered
	}
	if accuracy >= 0.7 && repetition >= 1 {
		return LevelReviewing
	}
	return LevelLearning
}
