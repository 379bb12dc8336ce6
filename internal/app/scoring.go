package app

import "medicohub-assessment-service/internal/domain"

// Score grades submitted answers against an assessment's question set and
// returns the annotated records with the count of correct answers.
//
// Matching tries the question ID first and falls back to exact prompt text,
// which keeps submissions from legacy clients (whose question sets predate
// stable IDs) gradable. If two questions share a prompt, the first in
// question order wins. An answer that matches no question is recorded as
// incorrect rather than rejected. Questions left unanswered are absent from
// the records and contribute nothing either way.
func Score(assessment domain.Assessment, submissions []domain.AnswerSubmission) ([]domain.AnswerRecord, int) {
	records := make([]domain.AnswerRecord, 0, len(submissions))
	total := 0
	for _, sub := range submissions {
		q := matchQuestion(assessment.Questions, sub)
		correct := q != nil && sub.Selected == q.CorrectAnswer
		if correct {
			total++
		}
		records = append(records, domain.AnswerRecord{
			QuestionID: sub.QuestionID,
			Selected:   sub.Selected,
			Correct:    correct,
		})
	}
	return records, total
}

func matchQuestion(questions []domain.Question, sub domain.AnswerSubmission) *domain.Question {
	if sub.QuestionID != "" {
		for i := range questions {
			if questions[i].ID == sub.QuestionID {
				return &questions[i]
			}
		}
	}
	if sub.QuestionText != "" {
		for i := range questions {
			if questions[i].Prompt == sub.QuestionText {
				return &questions[i]
			}
		}
	}
	return nil
}
