package keys

import "testing"

func TestLayout(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{Quiz("q1", "u1"), "quizwise_quiz_u1_q1"},
		{Quiz("q1", ""), "quizwise_quiz_q1"},
		{Answers("q1", "u1"), "quizwise_answers_u1_q1"},
		{Answers("q1", ""), "quizwise_answers_q1"},
		{Results("u1"), "quizwise_results_u1"},
		{Results(""), "quizwise_results"},
		{For(KindResults, "ignored", "u1"), "quizwise_results_u1"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("expected %q, got %q", c.want, c.got)
		}
	}
}

func TestKeysNeverCollide(t *testing.T) {
	ids := []string{"", "a", "b", "a_b", "b_a", "a%5Fb", "%", "_", "6f1c-uuid"}
	kinds := []Kind{KindQuiz, KindAnswers, KindResults}

	seen := make(map[string]string)
	for _, kind := range kinds {
		for _, quizID := range ids {
			if kind != KindResults && quizID == "" {
				continue
			}
			for _, userID := range ids {
				qid := quizID
				if kind == KindResults {
					qid = ""
				}
				tuple := string(kind) + "|" + qid + "|" + userID
				key := For(kind, qid, userID)
				if prev, ok := seen[key]; ok && prev != tuple {
					t.Fatalf("key %q derived for both %s and %s", key, prev, tuple)
				}
				seen[key] = tuple
			}
		}
	}
}

func TestResultsPartition(t *testing.T) {
	for _, userID := range []string{"", "u1", "user_with_underscores", "50%"} {
		got, ok := ResultsPartition(Results(userID))
		if !ok || got != userID {
			t.Fatalf("expected partition %q, got %q ok=%v", userID, got, ok)
		}
	}

	for _, key := range []string{"quizwise_resultsX", "quizwise_results_", "quizwise_quiz_q1", "quizwise_answers_u1_q1"} {
		if _, ok := ResultsPartition(key); ok {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}
