// Package keys derives the storage keys of quiz artifacts.
//
// Layout:
//
//	quizwise_quiz_{userID}_{quizID}     quizwise_quiz_{quizID}
//	quizwise_answers_{userID}_{quizID}  quizwise_answers_{quizID}
//	quizwise_results_{userID}           quizwise_results
//
// The right-hand column is the anonymous partition. Inside an id, "_" and "%"
// are percent-escaped so that distinct (kind, quizID, userID) tuples never map
// to the same key. Generated quiz ids contain neither byte.
package keys

import "strings"

// Kind is an artifact family.
type Kind string

const (
	KindQuiz    Kind = "quiz"
	KindAnswers Kind = "answers"
	KindResults Kind = "results"
)

const (
	namespace = "quizwise"
	sep       = "_"
)

// ResultsFamily is the prefix shared by every results key.
const ResultsFamily = namespace + sep + string(KindResults)

var escaper = strings.NewReplacer("%", "%25", "_", "%5F")

var unescaper = strings.NewReplacer("%5F", "_", "%25", "%")

func prefix(kind Kind) string {
	return namespace + sep + string(kind)
}

// For returns the key of an artifact. quizID is ignored for KindResults.
func For(kind Kind, quizID, userID string) string {
	var b strings.Builder
	b.WriteString(prefix(kind))
	if userID != "" {
		b.WriteString(sep)
		b.WriteString(escaper.Replace(userID))
	}
	if kind != KindResults {
		b.WriteString(sep)
		b.WriteString(escaper.Replace(quizID))
	}
	return b.String()
}

// Quiz returns the key of a quiz definition.
func Quiz(quizID, userID string) string {
	return For(KindQuiz, quizID, userID)
}

// Answers returns the key of a quiz's answer set.
func Answers(quizID, userID string) string {
	return For(KindAnswers, quizID, userID)
}

// Results returns the key of a partition's result list.
func Results(userID string) string {
	return For(KindResults, "", userID)
}

// ResultsPartition reports the user id owning a results key. ok is false when
// key is not a results key; an empty user id means the anonymous partition.
func ResultsPartition(key string) (userID string, ok bool) {
	if key == ResultsFamily {
		return "", true
	}
	rest, found := strings.CutPrefix(key, ResultsFamily+sep)
	if !found || rest == "" || strings.Contains(rest, sep) {
		return "", false
	}
	return unescaper.Replace(rest), true
}
