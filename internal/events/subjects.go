package events

import "fmt"

const (
	StreamName   = "TRIAGE"
	StreamMaxAge = "168h"
)

func SubjectDecisionCreated(id string) string {
	return fmt.Sprintf("triage.decision.%s.created", id)
}

func SubjectDecisionReviewed(id string) string {
	return fmt.Sprintf("triage.decision.%s.reviewed", id)
}

func SubjectOutcomeRecorded(id string) string {
	return fmt.Sprintf("triage.decision.%s.outcome", id)
}

const SubjectBatchCompleted = "triage.batch.completed"
