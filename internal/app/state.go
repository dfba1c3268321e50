package app

import "mindgap-tutor/internal/domain"

// State is a read-only snapshot of a Session, shaped for renderers.
type State struct {
	SessionID  string             `json:"sessionId"`
	Topic      string             `json:"topic"`
	Difficulty domain.Difficulty  `json:"difficulty"`
	Phase      Phase              `json:"phase"`
	Index      int                `json:"index"`
	Total      int                `json:"total"`
	Score      int                `json:"score"`
	Question   *QuestionView      `json:"question,omitempty"`
	Selected   string             `json:"selected,omitempty"`
	Revealed   bool               `json:"revealed"`
	Feedback   *Feedback          `json:"feedback,omitempty"`
	Result     *domain.Completion `json:"result,omitempty"`
}

// Finished reports whether the snapshot was taken after completion.
func (st State) Finished() bool {
	return st.Phase == PhaseFinished
}

// QuestionView is the part of a question visible before answering.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Feedback is revealed once an answer is locked in.
type Feedback struct {
	Correct       bool             `json:"correct"`
	CorrectAnswer string           `json:"correctAnswer"`
	Explanation   string           `json:"explanation"`
	Options       []OptionFeedback `json:"options"`
}

type OptionFeedback struct {
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
	Selected bool   `json:"selected"`
}

func (s *Session) snapshotLocked() State {
	st := State{
		SessionID:  s.id,
		Topic:      s.topic,
		Difficulty: s.difficulty,
		Phase:      s.phase,
		Index:      s.index,
		Total:      s.deck.Len(),
		Score:      s.score,
	}
	if s.phase == PhaseFinished {
		result := s.result
		st.Result = &result
		return st
	}

	question, err := s.deck.Get(s.index)
	if err != nil {
		return st
	}
	st.Question = &QuestionView{Prompt: question.Prompt, Options: question.Options}
	if !s.revealed {
		return st
	}

	st.Selected = s.selected
	st.Revealed = true
	fb := &Feedback{
		Correct:       s.selected == question.CorrectAnswer,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
		Options:       make([]OptionFeedback, len(question.Options)),
	}
	for i, opt := range question.Options {
		fb.Options[i] = OptionFeedback{
			Text:     opt,
			Correct:  opt == question.CorrectAnswer,
			Selected: opt == s.selected,
		}
	}
	st.Feedback = fb
	return st
}
